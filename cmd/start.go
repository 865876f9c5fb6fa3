package cmd

import (
	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/cmd/commands"
	"github.com/dawita19/earnmax-sub001/config"
	"github.com/dawita19/earnmax-sub001/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the settlement engine and listen for incoming requests",
	Long:  `Connect to the configured database, load the admin roster and account balances and serve the request, settlement and referral APIs`,
	Run: func(cmd *cobra.Command, args []string) {
		// load server configuration from server
		log.Debug().Msg("Loading server configuration")
		if viper.ConfigFileUsed() != "" {
			log.Debug().Str("section", "init").Str("path", viper.ConfigFileUsed()).Msg("Configuration file loaded")
		}
		cfg := config.LoadConfig(viper.GetViper())
		// Running migrations
		log.Debug().Msg("Running migrations")
		commands.Migrate(cfg)

		// start a new server
		log.Debug().Str("section", "init").Msg("Starting new server instance")
		srv := server.NewServer(cfg)
		// listen for new messages
		log.Info().Str("section", "init").Msg("Listening for incoming requests")
		srv.Listen()
	},
}
