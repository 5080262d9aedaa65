package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/screen"
)

// Type a mode name to show it; "left N" / "right N" to fake window counts.
func main() {
	ctx := context.Background()

	go screen.LoopUpdatingScreen(ctx)

	st := screen.Status{Preset: avoid.DefaultPreset, Branch: avoid.BranchCruise.String()}
	screen.SetStatus(st)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		var n int
		switch {
		case scan(line, "left %d", &n):
			st.Left = n
		case scan(line, "right %d", &n):
			st.Right = n
		default:
			screen.SetMode(strings.TrimSpace(line))
			continue
		}
		screen.SetStatus(st)
	}
}

func scan(line, format string, n *int) bool {
	_, err := fmt.Sscanf(strings.TrimSpace(line), format, n)
	return err == nil
}
