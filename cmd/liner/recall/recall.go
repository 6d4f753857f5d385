// Package recallcmder provides the recall command for querying memories from
// a running liner API server.
package recallcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/liner/api"
	"github.com/papercomputeco/liner/pkg/config"
	"github.com/papercomputeco/liner/pkg/recall"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	contentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type recallCommander struct {
	query     string
	topK      int
	jsonOut   bool
	apiTarget string
}

const recallLongDesc string = `Recall memories relevant to a query.

Sends the query to a running liner API server, which embeds it, searches
the vector index, and returns the most relevant memories ordered by score.
Requires 'liner serve' to be running with an embedder and vector index.

Use --json to emit the raw response for piping into other tools.

Examples:
  liner recall "which provider did we pick"
  liner recall "deploy window" --top 10
  liner recall "on-call owner" --api-target http://localhost:8091
  liner recall "staging host" --json | jq '.results[0].memory.content'`

const recallShortDesc string = "Recall relevant memories"

func NewRecallCmd() *cobra.Command {
	cmder := &recallCommander{}

	cmd := &cobra.Command{
		Use:   "recall <query>",
		Short: recallShortDesc,
		Long:  recallLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", recall.DefaultTopK, "Number of memories to return")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Emit the raw JSON response")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Liner API server URL")

	return cmd
}

func (c *recallCommander) run(ctx context.Context, out io.Writer) error {
	output, err := recallAPI(ctx, c.apiTarget, c.query, c.topK)
	if err != nil {
		return err
	}

	if c.jsonOut {
		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if output.Count == 0 {
		fmt.Fprintln(out, "No memories recalled.")
		return nil
	}

	fmt.Fprintf(out, "\n%s %s\n\n",
		headerStyle.Render("Memories recalled for:"),
		idStyle.Render(fmt.Sprintf("%q", output.Query)),
	)

	for i, result := range output.Results {
		printResult(out, i+1, result)
	}

	return nil
}

func printResult(out io.Writer, rank int, result recall.Result) {
	m := result.Memory

	fmt.Fprintf(out, "  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		idStyle.Render("memory "+m.MemoryID),
	)

	content := strings.ReplaceAll(m.Content, "\n", " ")
	fmt.Fprintf(out, "  %s\n", contentStyle.Render(content))

	provenance := fmt.Sprintf("%s · turn %d · confidence %.2f",
		m.ConversationID, m.TurnID, m.Confidence)
	if !m.Timestamp.IsZero() {
		provenance += " · " + m.Timestamp.Format("2006-01-02 15:04 MST")
	}
	fmt.Fprintf(out, "  %s\n", dimStyle.Render(provenance))

	if m.PreviousMemoryID != "" {
		fmt.Fprintf(out, "  %s\n", dimStyle.Render("supersedes "+m.PreviousMemoryID))
	}

	fmt.Fprintln(out)
}

// recallAPI calls the liner recall endpoint and returns the parsed response.
func recallAPI(ctx context.Context, apiTarget, query string, topK int) (*api.RecallResponse, error) {
	recallURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	recallURL.Path = "/v1/recall"
	q := recallURL.Query()
	q.Set("query", query)
	q.Set("top_k", strconv.Itoa(topK))
	recallURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recallURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating recall request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to liner API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recall request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output api.RecallResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse recall response: %w", err)
	}

	return &output, nil
}
