package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/cyberinferno/boggle-server/client"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "register, join a game and print its status",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "localhost:60000", Usage: "server address", Sources: cli.EnvVars("BOGGLE_ADDR")},
			&cli.StringFlag{Name: "prefix", Value: "/BoggleService", Usage: "request path prefix", Sources: cli.EnvVars("BOGGLE_PATH_PREFIX")},
			&cli.StringFlag{Name: "nickname", Value: "player", Usage: "nickname to register"},
			&cli.DurationFlag{Name: "time-limit", Value: 60 * time.Second, Usage: "requested game length"},
			&cli.BoolFlag{Name: "wait", Usage: "poll until an opponent joins"},
		},
		Action: runPlay,
	}
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	cfg := client.DefaultConfig(cmd.String("addr"))
	cfg.PathPrefix = cmd.String("prefix")
	c := client.New(cfg)

	token, err := c.Register(ctx, cmd.String("nickname"))
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	res, err := c.Join(ctx, token, int(cmd.Duration("time-limit")/time.Second))
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}

	if err := printJSON(map[string]any{"UserToken": token, "GameID": res.GameID, "IsPending": res.IsPending}); err != nil {
		return err
	}

	if !res.IsPending || !cmd.Bool("wait") {
		return nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := c.Cancel(context.Background(), token); err != nil {
				return fmt.Errorf("cancel: %w", err)
			}
			return nil
		case <-ticker.C:
		}

		st, err := c.Status(ctx, res.GameID, false)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}

		if st.GameState != "pending" {
			return printJSON(st)
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
