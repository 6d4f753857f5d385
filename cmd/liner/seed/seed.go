// Package seedcmder provides the seed command for writing a demo
// conversations file that the consolidate and evaluate commands can ingest.
package seedcmder

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/liner/pkg/cliui"
	"github.com/papercomputeco/liner/pkg/conversation"
)

const seedLongDesc string = `Write a demo conversations file.

Generates a small set of recorded conversations with known facts,
including one where a preference changes mid-dialogue, so the
consolidation pipeline has something realistic to chew on.

Examples:
  liner seed
  liner seed --output demo.json
  liner seed --force`

const seedShortDesc string = "Write demo conversations"

type seedCommander struct {
	output string
	force  bool
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.output, "output", "o", "conversations.json", "Path to write the conversations file")
	cmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Overwrite the output file if it exists")

	return cmd
}

func (c *seedCommander) run() error {
	if !c.force {
		if _, err := os.Stat(c.output); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", c.output)
		}
	}

	conversations := demoConversations()

	var turnCount int
	for _, conv := range conversations {
		turnCount += len(conv.Turns)
	}

	if err := cliui.Step(os.Stdout, "Writing demo conversations", func() error {
		data, err := json.MarshalIndent(conversations, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding conversations: %w", err)
		}
		return os.WriteFile(c.output, data, 0o644)
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Seeded %s conversations %s into %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(len(conversations))),
		cliui.DimStyle.Render(fmt.Sprintf("(%d turns)", turnCount)),
		cliui.DimStyle.Render(c.output),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Run 'liner consolidate "+c.output+"' to extract memories."))
	return nil
}

// demoConversations returns conversations with stable, checkable facts. The
// first one revises a stated preference so version chains show up after
// consolidation.
func demoConversations() []conversation.Conversation {
	return []conversation.Conversation{
		{
			ConversationID: "demo-onboarding",
			Turns: []conversation.Turn{
				{TurnID: 1, Role: conversation.RoleUser, Content: "Hi, I'm Alice. I'm setting up our new inference service and I work on the platform team."},
				{TurnID: 2, Role: conversation.RoleAssistant, Content: "Nice to meet you, Alice. Which provider are you planning to use for the inference service?"},
				{TurnID: 3, Role: conversation.RoleUser, Content: "We're going with OpenAI for now, model gpt-4o, mostly because the team already has keys."},
				{TurnID: 4, Role: conversation.RoleAssistant, Content: "Understood. I'll assume OpenAI gpt-4o as the default provider for the inference service."},
				{TurnID: 5, Role: conversation.RoleUser, Content: "Actually, scratch that. Legal cleared Anthropic this morning, so we're switching to Anthropic instead of OpenAI."},
				{TurnID: 6, Role: conversation.RoleAssistant, Content: "Got it, Anthropic it is. I'll treat Anthropic as the provider of record going forward."},
			},
			GroundTruth: "Alice works on the platform team and the inference service uses Anthropic (previously OpenAI gpt-4o).",
		},
		{
			ConversationID: "demo-deploy-window",
			Turns: []conversation.Turn{
				{TurnID: 1, Role: conversation.RoleUser, Content: "Reminder for future sessions: our deploy window is Tuesdays at 14:00 UTC, and staging lives at staging.internal.example.com."},
				{TurnID: 2, Role: conversation.RoleAssistant, Content: "Noted. Tuesday 14:00 UTC deploys, staging at staging.internal.example.com."},
				{TurnID: 3, Role: conversation.RoleUser, Content: "Also, Bob owns the on-call rotation this quarter."},
				{TurnID: 4, Role: conversation.RoleAssistant, Content: "Recorded. Bob owns on-call for the quarter."},
			},
			GroundTruth: "Deploys happen Tuesdays 14:00 UTC, staging is staging.internal.example.com, and Bob owns on-call this quarter.",
		},
	}
}
