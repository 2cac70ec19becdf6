package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zumgugger/reformat-sub001/internal/codec"
	"github.com/Zumgugger/reformat-sub001/internal/tui"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List output formats and engine support",
	Run: func(cmd *cobra.Command, args []string) {
		// Zero-value engines answer Supports without touching libvips,
		// so no engine initialization happens here.
		native := codec.NewNativeEngine()
		vips := &codec.VipsEngine{}

		rows := make([]tui.SummaryRow, 0, len(codec.EncodeFormats()))
		for _, f := range codec.EncodeFormats() {
			rows = append(rows, tui.SummaryRow{
				Label: f.String(),
				Value: fmt.Sprintf("vips %s   native %s", yesNo(vips.Supports(f)), yesNo(native.Supports(f))),
			})
		}
		fmt.Println(tui.RenderSummary(rows))
		fmt.Println("Targets the selected engine cannot encode fail that conversion.")
		fmt.Println("Transparent sources auto-switch to png when the target drops alpha.")
	},
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no "
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
