package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zfogg/sidechain/reels/pkg/output"
	"github.com/zfogg/sidechain/reels/pkg/service"
)

var personalizeCmd = &cobra.Command{
	Use:       "personalize [on|off]",
	Short:     "Show or set the personalized feed preference",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		reelsService, err := service.NewReelsService()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			state := "off"
			if reelsService.Personalized() {
				state = "on"
			}
			output.PrintInfo("Personalized feed: %s", state)
			return nil
		}
		switch args[0] {
		case "on":
			return reelsService.SetPersonalized(true)
		case "off":
			return reelsService.SetPersonalized(false)
		}
		return fmt.Errorf("expected on or off, got %q", args[0])
	},
}
