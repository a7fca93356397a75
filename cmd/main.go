package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/airbusgeo/godal"
	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"github.com/forest-guardian/global-mining-labels/internal/notification"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func printBanner() {
	figure1 := figure.NewFigure("Mining", "isometric1", true)
	figure2 := figure.NewFigure("Labels", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func loadEnv() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
	logger.Debug("no .env file found, using process environment")
}

func rootCommand() *cobra.Command {
	var debugLog, quiet bool

	rootCmd := &cobra.Command{
		Use:           "mining-labels",
		Short:         "Generate 3-class mining label rasters from satellite tiles and annotated extents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(debugLog)
			if !quiet {
				printBanner()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the banner")

	rootCmd.AddCommand(
		generateCommand(),
		resolveCommand(),
		summaryCommand(),
		rgbCommand(),
		reorganizeCommand(),
	)
	return rootCmd
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			bannercolor.Red("PANIC: %v", r)
			errMessage := fmt.Sprintf("Mining labels panic:\n\n%v\n\nStack trace:\n%s", r, debug.Stack())
			if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
				bannercolor.Red("Failed to send notification: %s", err.Error())
			}
			os.Exit(2)
		}
	}()

	loadEnv()
	godal.RegisterAll()
	defer logger.Sync()

	if err := rootCommand().Execute(); err != nil {
		bannercolor.Red("Error: %s", err.Error())
		os.Exit(1)
	}
}
