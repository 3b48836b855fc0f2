package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sarchlab/thrash/cache"
	"github.com/spf13/cobra"
)

// Environment variables that provide defaults for flags.
const (
	envPreset        = "THRASH_PRESET"
	envLog2BlockSize = "THRASH_LOG2_BLOCK_SIZE"
	envLog2NumSets   = "THRASH_LOG2_NUM_SETS"
	envLog2NumWays   = "THRASH_LOG2_NUM_WAYS"
	envRecordDB      = "THRASH_RECORD_DB"
	envMonitorPort   = "THRASH_MONITOR_PORT"
)

const defaultPreset = "8kib-32b-2way"

// Sets and ways beyond this are more lines than a replay should allocate.
const maxLog2Lines = 30

// loadEnvFile adds the variables of a dotenv file to the environment.
// Variables that are already set win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}

	err = godotenv.Load(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// stringSetting returns the flag if it was given on the command line, then
// the environment variable, then the flag default.
func stringSetting(cmd *cobra.Command, flag, envKey string) string {
	value, _ := cmd.Flags().GetString(flag)
	if cmd.Flags().Changed(flag) {
		return value
	}

	if env, ok := os.LookupEnv(envKey); ok && env != "" {
		return env
	}

	return value
}

// intSetting resolves an integer flag the same way as stringSetting.
func intSetting(cmd *cobra.Command, flag, envKey string) (int, error) {
	value, _ := cmd.Flags().GetInt(flag)
	if cmd.Flags().Changed(flag) {
		return value, nil
	}

	env, ok := os.LookupEnv(envKey)
	if !ok || env == "" {
		return value, nil
	}

	value, err := strconv.Atoi(env)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", envKey, err)
	}

	return value, nil
}

func addSpecFlags(cmd *cobra.Command) {
	cmd.Flags().String("preset", defaultPreset,
		"Cache geometry preset. Run `thrash presets` to list them.")
	cmd.Flags().Int("log2-block-size", -1,
		"Override the preset's log2 of the block size in bytes.")
	cmd.Flags().Int("log2-num-sets", -1,
		"Override the preset's log2 of the number of sets.")
	cmd.Flags().Int("log2-num-ways", -1,
		"Override the preset's log2 of the associativity.")
}

// specSetting starts from the preset and applies any exponent overrides.
func specSetting(cmd *cobra.Command) (cache.Spec, error) {
	spec, err := cache.PresetByName(stringSetting(cmd, "preset", envPreset))
	if err != nil {
		return cache.Spec{}, err
	}

	overrides := []struct {
		flag   string
		envKey string
		field  *uint8
	}{
		{"log2-block-size", envLog2BlockSize, &spec.Log2BlockSize},
		{"log2-num-sets", envLog2NumSets, &spec.Log2NumSets},
		{"log2-num-ways", envLog2NumWays, &spec.Log2NumWays},
	}

	for _, o := range overrides {
		value, err := intSetting(cmd, o.flag, o.envKey)
		if err != nil {
			return cache.Spec{}, err
		}

		if value < 0 {
			continue
		}

		if value > 63 {
			return cache.Spec{}, fmt.Errorf("%s %d is out of range", o.flag, value)
		}

		*o.field = uint8(value)
	}

	return spec, validateSpec(spec)
}

func validateSpec(spec cache.Spec) error {
	if spec.Log2BlockSize > spec.Log2NumSets {
		return fmt.Errorf(
			"%s: block size exponent must not exceed the set exponent", spec)
	}

	if int(spec.Log2NumSets)+int(spec.Log2NumWays) > maxLog2Lines {
		return fmt.Errorf("%s: too many lines to simulate", spec)
	}

	if int(spec.Log2BlockSize)+int(spec.Log2NumSets) >= 64 {
		return fmt.Errorf("%s: addresses cannot be split", spec)
	}

	return nil
}
