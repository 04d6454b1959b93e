// Command quizctl is a small HTTP client for controlling a running QuizWire
// server from the terminal. It covers the quiz lifecycle (start, stop, pause,
// resume, status), question set listing, global settings, and transcripts.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/quizwire/quizwire/presenter"
	"github.com/quizwire/quizwire/quiz/service"
	"github.com/quizwire/quizwire/quiz/session"
)

func main() {
	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "quizctl",
		Usage: "control a running QuizWire server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Value:   "http://localhost:8080",
				Usage:   "base URL of the QuizWire server",
				Sources: cli.EnvVars("QUIZWIRE_API"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "quizzes",
				Usage:  "list the available question sets",
				Action: cmdQuizzes,
			},
			{
				Name:   "reload",
				Usage:  "rescan the server's quiz directory",
				Action: cmdReload,
			},
			{
				Name:      "start",
				Usage:     "start a quiz in a channel",
				ArgsUsage: "<channel> <quiz>",
				Action:    cmdStart,
			},
			{
				Name:      "stop",
				Usage:     "stop the channel's quiz",
				ArgsUsage: "<channel>",
				Action:    control("stop"),
			},
			{
				Name:      "pause",
				Usage:     "pause the channel's countdown",
				ArgsUsage: "<channel>",
				Action:    control("pause"),
			},
			{
				Name:      "resume",
				Usage:     "resume the channel's countdown",
				ArgsUsage: "<channel>",
				Action:    control("resume"),
			},
			{
				Name:      "status",
				Usage:     "show progress and timer state for a channel",
				ArgsUsage: "<channel>",
				Action:    cmdStatus,
			},
			{
				Name:   "sessions",
				Usage:  "list sessions across all channels",
				Action: cmdSessions,
			},
			{
				Name:      "messages",
				Usage:     "print the channel transcript",
				ArgsUsage: "<channel>",
				Action:    cmdMessages,
			},
			{
				Name:  "settings",
				Usage: "inspect or adjust the global quiz settings",
				Commands: []*cli.Command{
					{
						Name:   "get",
						Usage:  "show the current settings",
						Action: cmdSettingsGet,
					},
					{
						Name:  "set",
						Usage: "update settings; only provided flags change",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "questions", Usage: "questions per session (1-100)"},
							&cli.BoolFlag{Name: "all-questions", Usage: "clear the question limit"},
							&cli.IntFlag{Name: "timer", Usage: "seconds per question (5-300)"},
							&cli.BoolFlag{Name: "random", Usage: "shuffle questions at session start"},
							&cli.BoolFlag{Name: "ordered", Usage: "keep questions in file order"},
						},
						Action: cmdSettingsSet,
					},
				},
			},
		},
	}
}

// apiCall issues a request against the server and decodes the JSON response.
// Error responses surface the server's error message.
func apiCall(cmd *cli.Command, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, cmd.String("api")+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func channelArg(cmd *cli.Command) (string, error) {
	channel := cmd.Args().First()
	if channel == "" {
		return "", fmt.Errorf("channel argument is required")
	}
	return channel, nil
}

func cmdQuizzes(ctx context.Context, cmd *cli.Command) error {
	var resp struct {
		Count   int                `json:"count"`
		Quizzes []service.QuizInfo `json:"quizzes"`
	}
	if err := apiCall(cmd, "GET", "/api/quizzes", nil, &resp); err != nil {
		return err
	}

	fmt.Printf("%d quiz(es) available:\n", resp.Count)
	for _, q := range resp.Quizzes {
		fmt.Printf("  %-20s %d questions\n", q.Name, q.Questions)
	}
	return nil
}

func cmdReload(ctx context.Context, cmd *cli.Command) error {
	var resp struct {
		Count   int                `json:"count"`
		Quizzes []service.QuizInfo `json:"quizzes"`
	}
	if err := apiCall(cmd, "POST", "/api/quizzes/reload", nil, &resp); err != nil {
		return err
	}

	fmt.Printf("Reloaded. %d quiz(es) available:\n", resp.Count)
	for _, q := range resp.Quizzes {
		fmt.Printf("  %-20s %d questions\n", q.Name, q.Questions)
	}
	return nil
}

func cmdStart(ctx context.Context, cmd *cli.Command) error {
	channel, err := channelArg(cmd)
	if err != nil {
		return err
	}
	quiz := cmd.Args().Get(1)
	if quiz == "" {
		return fmt.Errorf("quiz argument is required")
	}

	var result service.StartResult
	err = apiCall(cmd, "POST", "/api/channels/"+channel+"/start", map[string]string{"quiz": quiz}, &result)
	if err != nil {
		return err
	}

	fmt.Println(result.Message)
	return nil
}

// control returns an action posting to the named channel operation.
func control(op string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		channel, err := channelArg(cmd)
		if err != nil {
			return err
		}

		var result struct {
			Message string `json:"message"`
		}
		if err := apiCall(cmd, "POST", "/api/channels/"+channel+"/"+op, nil, &result); err != nil {
			return err
		}

		fmt.Println(result.Message)
		return nil
	}
}

func cmdStatus(ctx context.Context, cmd *cli.Command) error {
	channel, err := channelArg(cmd)
	if err != nil {
		return err
	}

	var result service.StatusResult
	if err := apiCall(cmd, "GET", "/api/channels/"+channel+"/status", nil, &result); err != nil {
		return err
	}

	fmt.Println(result.Message)
	if result.Session.Timer != nil {
		fmt.Printf("Timer: %ds of %ds remaining (paused: %v)\n",
			result.Session.Timer.Remaining, result.Session.Timer.Total, result.Session.Timer.Paused)
	}
	if len(result.Errors) > 0 {
		fmt.Printf("Recent errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  [%s] %s\n", e.Time.Format("15:04:05"), e.Message)
		}
	}
	return nil
}

func cmdSessions(ctx context.Context, cmd *cli.Command) error {
	var resp struct {
		Count    int                `json:"count"`
		Sessions []session.Snapshot `json:"sessions"`
	}
	if err := apiCall(cmd, "GET", "/api/sessions", nil, &resp); err != nil {
		return err
	}

	fmt.Printf("%d session(s):\n", resp.Count)
	for _, s := range resp.Sessions {
		state := "inactive"
		if s.Active {
			state = "running"
			if s.Paused {
				state = "paused"
			}
		}
		fmt.Printf("  %-15s %-20s question %d/%d  %s\n", s.ChannelKey, s.QuizName, s.Current, s.Total, state)
	}
	return nil
}

func cmdMessages(ctx context.Context, cmd *cli.Command) error {
	channel, err := channelArg(cmd)
	if err != nil {
		return err
	}

	var resp struct {
		Count    int                 `json:"count"`
		Messages []presenter.Message `json:"messages"`
	}
	if err := apiCall(cmd, "GET", "/api/channels/"+channel+"/messages", nil, &resp); err != nil {
		return err
	}

	for _, m := range resp.Messages {
		marker := ""
		if m.Edited {
			marker = " (edited)"
		}
		fmt.Printf("[%s]%s %s\n\n", m.Posted.Format("15:04:05"), marker, m.Text)
	}
	return nil
}

func cmdSettingsGet(ctx context.Context, cmd *cli.Command) error {
	var view service.SettingsView
	if err := apiCall(cmd, "GET", "/api/settings", nil, &view); err != nil {
		return err
	}

	fmt.Println(view.Summary)
	return nil
}

func cmdSettingsSet(ctx context.Context, cmd *cli.Command) error {
	update := map[string]interface{}{}
	if cmd.IsSet("questions") {
		update["question_count"] = cmd.Int("questions")
	}
	if cmd.IsSet("all-questions") {
		update["all_questions"] = true
	}
	if cmd.IsSet("timer") {
		update["timer_duration"] = cmd.Int("timer")
	}
	if cmd.IsSet("random") {
		update["random_order"] = true
	}
	if cmd.IsSet("ordered") {
		update["random_order"] = false
	}
	if len(update) == 0 {
		return fmt.Errorf("no settings provided; see 'quizctl settings set --help'")
	}

	var view service.SettingsView
	if err := apiCall(cmd, "PUT", "/api/settings", update, &view); err != nil {
		return err
	}

	fmt.Println("Settings updated:", view.Summary)
	return nil
}
