package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/2beens/rerack/internal/syncqueue"
)

var (
	tokenFlag  string
	userFlag   string
	purgeFlag  bool
	minFlag    float64
	jsonOutput bool
)

func tokenFromFlagOrEnv() string {
	if tokenFlag != "" {
		return tokenFlag
	}
	return os.Getenv("RERACK_TOKEN")
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

var loginCmd = &cobra.Command{
	Use:     "login",
	GroupID: "sync",
	Short:   "Create a session token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userFlag == "" {
			return fmt.Errorf("--user is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := openComponents(cmd.Context(), cfg, readSecrets())
		if err != nil {
			return err
		}
		defer c.close()

		if c.sessions == nil {
			return errRedisRequired
		}
		sess, err := c.sessions.Login(cmd.Context(), userFlag, time.Now())
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}

		if jsonOutput {
			return printJSON(sess)
		}
		fmt.Println(sess.Token)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "sync",
	Short:   "Revoke a session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := tokenFromFlagOrEnv()
		if token == "" {
			return errTokenRequired
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := openComponents(cmd.Context(), cfg, readSecrets())
		if err != nil {
			return err
		}
		defer c.close()

		if c.sessions == nil {
			return errRedisRequired
		}
		if err := c.sessions.Logout(cmd.Context(), token); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Println("logged out")
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Replay operations queued while offline",
	Long: `Drain the sync queue against the remote store, oldest operation first.
Operations that fail stay queued for the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := openComponents(cmd.Context(), cfg, readSecrets())
		if err != nil {
			return err
		}
		defer c.close()

		sess, err := c.session(cmd.Context(), tokenFromFlagOrEnv())
		if err != nil {
			return err
		}

		res, err := c.storage.SyncOfflineData(cmd.Context(), sess)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		pending, err := c.storage.PendingSyncCount(cmd.Context())
		if err != nil {
			return fmt.Errorf("count pending: %w", err)
		}

		if jsonOutput {
			return printJSON(struct {
				syncqueue.Result
				Pending int `json:"pending"`
			}{res, pending})
		}
		fmt.Printf("synced %d, failed %d, dead lettered %d, skipped %d, still pending %d\n",
			res.Synced, res.Failed, res.DeadLettered, res.Skipped, pending)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	GroupID: "sync",
	Short:   "Upload local only data to the remote store",
	Long: `Copy every local workout, personal record and the profile to the remote
store for the signed in user. Failed items are skipped. With --purge the
local copy is cleared, but only if nothing failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := openComponents(cmd.Context(), cfg, readSecrets())
		if err != nil {
			return err
		}
		defer c.close()

		sess, err := c.session(cmd.Context(), tokenFromFlagOrEnv())
		if err != nil {
			return err
		}

		res, err := c.storage.MigrateLocalToCloud(cmd.Context(), sess)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		purged := false
		if purgeFlag && res.Success() {
			if err := c.storage.ClearLocalData(cmd.Context()); err != nil {
				return fmt.Errorf("clear local data: %w", err)
			}
			purged = true
		}

		if jsonOutput {
			return printJSON(struct {
				Workouts        int  `json:"workouts"`
				PersonalRecords int  `json:"personalRecords"`
				Profile         int  `json:"profile"`
				Failed          int  `json:"failed"`
				Purged          bool `json:"purged"`
			}{res.Workouts, res.PersonalRecords, res.Profile, res.Failed, purged})
		}
		fmt.Printf("migrated %d/%d workouts, %d personal records, %d profile, failed: %d\n",
			res.Workouts, res.TotalWorkouts, res.PersonalRecords, res.Profile, res.Failed)
		if purgeFlag && !purged {
			fmt.Println("local data kept, some items failed to migrate")
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&userFlag, "user", "", "user id to create the session for")

	for _, cmd := range []*cobra.Command{logoutCmd, syncCmd, migrateCmd} {
		cmd.Flags().StringVar(&tokenFlag, "token", "", "session token (defaults to RERACK_TOKEN)")
	}
	migrateCmd.Flags().BoolVar(&purgeFlag, "purge", false, "clear local data after a fully successful migration")
}
