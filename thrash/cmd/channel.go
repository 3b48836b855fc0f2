package cmd

import (
	_ "embed"
	"fmt"
	"go/token"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
)

//go:embed channelTemplate.txt
var channelTemplate string

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Create cache channel declarations.",
	Long: "`channel --create [ChannelName] --package [pkg]` writes a new " +
		"channel declaration into the package directory.",
	Run: func(cmd *cobra.Command, args []string) {
		channelName, _ := cmd.Flags().GetString("create")
		if channelName == "" {
			fmt.Println("Action not valid.")
			return
		}

		packageName, _ := cmd.Flags().GetString("package")
		dir, _ := cmd.Flags().GetString("dir")

		path, err := generateChannelFile(dir, packageName, channelName)
		if err != nil {
			log.Fatalf("Error creating channel: %v", err)
		}

		fmt.Printf("Channel '%s' created in %s\n", channelName, path)
	},
}

func init() {
	rootCmd.AddCommand(channelCmd)
	channelCmd.Flags().String("create", "", "Create a new channel")
	channelCmd.Flags().String("package", "main",
		"Package the channel declaration belongs to")
	channelCmd.Flags().String("dir", ".",
		"Directory to write the declaration into")
}

// generateChannelFile writes <dir>/<channel>_channel.go and returns its path.
func generateChannelFile(dir, packageName, channelName string) (string, error) {
	if !token.IsIdentifier(channelName) || !token.IsExported(channelName) {
		return "", fmt.Errorf(
			"channel name %q must be an exported Go identifier", channelName)
	}

	if !token.IsIdentifier(packageName) {
		return "", fmt.Errorf(
			"package name %q is not a Go identifier", packageName)
	}

	_, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("failed to find folder %s", dir)
	} else if err != nil {
		return "", fmt.Errorf("%v", err)
	}

	fileName := strings.ToLower(channelName) + "_channel.go"
	filePath := filepath.Join(dir, fileName)

	_, err = os.Stat(filePath)
	if err == nil {
		return "", fmt.Errorf("file '%s' already exists", filePath)
	}

	content := strings.NewReplacer(
		"{{packageName}}", packageName,
		"{{channelName}}", channelName,
		"{{registryName}}", registryVarName(channelName),
	).Replace(channelTemplate)

	err = os.WriteFile(filePath, []byte(content), 0644)
	if err != nil {
		return "", fmt.Errorf("%v", err)
	}

	return filePath, nil
}

// registryVarName lowers the first letter and adds a suffix, so L2 becomes
// l2Registry.
func registryVarName(channelName string) string {
	runes := []rune(channelName)
	runes[0] = unicode.ToLower(runes[0])

	return string(runes) + "Registry"
}
