// Package admin manages the administrator password and limits
package admin

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"fjacquet/ekstre-csv/cmd/common"
	"fjacquet/ekstre-csv/cmd/root"

	"github.com/spf13/cobra"
)

var (
	password      string
	retentionDays int
	maxUploadMB   int
)

// Cmd represents the admin command
var Cmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage the administrator password and limits",
	Long: `Manage the settings file that protects the /api/admin endpoints and holds the
history retention period and the upload size limit.

Example:
  ekstre-csv admin set-password --password 's3cret'
  ekstre-csv admin settings --retention-days 30 --max-upload-mb 20`,
}

var setPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Replace the administrator password",
	Long: `Replace the administrator password. Without --password the new password is
read from the first line of standard input.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return common.ErrNoContainer
		}
		pw := password
		if pw == "" {
			var err error
			if pw, err = readLine(cmd.InOrStdin()); err != nil {
				return err
			}
		}
		if err := c.GetAdmin().SetPassword(pw); err != nil {
			return err
		}
		cmd.Println("Administrator password updated")
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update the retention period and upload limit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return common.ErrNoContainer
		}
		m := c.GetAdmin()
		if cmd.Flags().Changed("retention-days") || cmd.Flags().Changed("max-upload-mb") {
			current := m.Settings()
			days, mb := current.FileRetentionDays, current.MaxUploadSizeMB
			if cmd.Flags().Changed("retention-days") {
				days = retentionDays
			}
			if cmd.Flags().Changed("max-upload-mb") {
				mb = maxUploadMB
			}
			if err := m.UpdateSettings(days, mb); err != nil {
				return err
			}
		}

		s := m.Settings()
		cmd.Printf("Settings file:      %s\n", m.Path())
		cmd.Printf("Retention (days):   %d\n", s.FileRetentionDays)
		cmd.Printf("Max upload (MB):    %d\n", s.MaxUploadSizeMB)
		if !s.LastSettingsUpdate.IsZero() {
			cmd.Printf("Last updated:       %s\n", s.LastSettingsUpdate.Format("2006-01-02 15:04:05 MST"))
		}
		return nil
	},
}

func init() {
	setPasswordCmd.Flags().StringVar(&password, "password", "", "New password")
	settingsCmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Days statements are kept in history")
	settingsCmd.Flags().IntVar(&maxUploadMB, "max-upload-mb", 0, "Largest accepted upload in MB")
	Cmd.AddCommand(setPasswordCmd, settingsCmd)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
