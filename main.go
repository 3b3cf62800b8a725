package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/action"
	"github.com/pchaganti/px-zuckerman-sub001/core/agent"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"
	"github.com/sashabaranov/go-openai/jsonschema"
)

var configFile = os.Getenv("ZUCKERMAN_CONFIG")
var baseModel = os.Getenv("ZUCKERMAN_MODEL")
var apiURL = os.Getenv("ZUCKERMAN_API_URL")
var apiKey = os.Getenv("ZUCKERMAN_API_KEY")
var timeout = os.Getenv("ZUCKERMAN_TIMEOUT")
var maxIterations = os.Getenv("ZUCKERMAN_MAX_ITERATIONS")
var treeStore = os.Getenv("ZUCKERMAN_TREE_STORE")
var conversationID = os.Getenv("ZUCKERMAN_CONVERSATION")

func loadConfig() (*agent.Config, error) {
	cfg := &agent.Config{}
	if configFile != "" {
		var err error
		if cfg, err = agent.LoadConfig(configFile); err != nil {
			return nil, err
		}
	}

	// environment wins over the file
	if baseModel != "" {
		cfg.Model = baseModel
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if timeout != "" {
		cfg.Timeout = timeout
	}
	if treeStore != "" {
		cfg.TreeStore = treeStore
	}
	if maxIterations != "" {
		n, err := strconv.Atoi(maxIterations)
		if err != nil {
			return nil, fmt.Errorf("ZUCKERMAN_MAX_ITERATIONS: %w", err)
		}
		cfg.MaxIterations = n
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("no model configured, set ZUCKERMAN_MODEL or model in the config file")
	}
	if cfg.Timeout == "" {
		cfg.Timeout = "5m"
	}
	return cfg, nil
}

func currentTimeTool() types.Tool {
	return action.NewFuncTool(types.ActionDefinition{
		Name:        "current_time",
		Description: "Returns the current date and time, optionally in the given IANA time zone.",
		Properties: map[string]jsonschema.Definition{
			"timezone": {
				Type:        jsonschema.String,
				Description: "IANA time zone name, e.g. Europe/Rome. Defaults to UTC.",
			},
		},
	}, func(ctx context.Context, params types.ActionParams) (string, error) {
		loc := time.UTC
		if tz, _ := params["timezone"].(string); tz != "" {
			l, err := time.LoadLocation(tz)
			if err != nil {
				return "", fmt.Errorf("unknown time zone %q: %w", tz, err)
			}
			loc = l
		}
		return time.Now().In(loc).Format(time.RFC1123), nil
	})
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	opts, err := cfg.Options()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tools, err := action.NewRegistry(currentTimeTool())
	if err != nil {
		panic(err)
	}

	observer := agent.NewBufferedObserver(cfg.Name, agent.LogSink)
	defer observer.Close()

	client := llm.NewClient(cfg.APIKey, cfg.APIURL, cfg.Timeout)
	a, err := agent.New(
		llm.NewOpenAIReasoner(client, cfg.Model),
		append(opts, agent.WithToolExecutor(tools), agent.WithObserver(observer))...,
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if conversationID == "" {
		conversationID = types.NewRunRequest("").RunID
	}

	ask := func(message string) {
		res := a.Run(ctx, types.NewRunRequest(message, types.WithConversationID(conversationID)))
		xlog.Debug("run result", "run", res.RunID, "iterations", res.Iterations, "reason", res.StopReason)
		fmt.Println(res.Response)
	}

	if len(os.Args) > 1 {
		ask(strings.Join(os.Args[1:], " "))
		return
	}

	// one run per line, all in the same conversation
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ask(line)
		if ctx.Err() != nil {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		xlog.Error("reading input", "error", err)
	}
}
