package cfg

import (
	"fmt"
	"os"

	"fetcharr/internal/utils/logging"

	"github.com/spf13/viper"
)

// loadConfigFile merges settings from any viper-supported config file.
//
// Flags set on the command line and environment overrides keep precedence.
func loadConfigFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed check for config file path: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config file %q is a directory, should be a file", path)
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	logging.I("Loaded config file %q", viper.ConfigFileUsed())
	return nil
}
