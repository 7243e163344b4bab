package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/pkg/pipeline"
)

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <description>",
	Short: "Refine an idea and search all sources for similar products",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		description := strings.Join(args, " ")
		ctx := cmd.Context()

		refineSpinner := getSpinner(" Refining idea...")
		name, question, err := a.refiner.NameAndQuestion(ctx, description)
		refineSpinner.Finish()
		if err != nil {
			return fmt.Errorf("failed to refine idea: %w", err)
		}

		color.Cyan("\nIdea: %s", name)
		if question != "" {
			color.Blue("Follow-up worth answering: %s", question)
		}

		idea := &models.Idea{
			ID:                uuid.NewString(),
			Name:              name,
			Description:       description,
			FollowupQuestion:  question,
			SimilarProductIDs: []string{},
		}
		if err := a.ideas.PutIdea(ctx, idea); err != nil {
			return fmt.Errorf("failed to store idea: %w", err)
		}

		// Subscribe before launching so no event is missed.
		events, cancel := a.coordinator.Rounds().Subscribe(idea.ID)
		defer cancel()

		if _, err := a.coordinator.StartRound(ctx, idea.ID); err != nil {
			return fmt.Errorf("failed to start search round: %w", err)
		}

		searchSpinner := getSpinner(" Searching Devpost, Product Hunt, YC and GitHub...")
		total := waitForRound(events, searchSpinner)
		searchSpinner.Finish()
		fmt.Println()

		products, err := a.products.ProductsByIDs(ctx, currentIDs(ctx, a, idea.ID), description)
		if err != nil {
			return fmt.Errorf("failed to load results: %w", err)
		}

		color.Green("✓ Found %d similar products\n", total)
		for _, p := range products {
			printProduct(p)
		}
		return nil
	},
}

var randomIdeaCmd = &cobra.Command{
	Use:   "random-idea",
	Short: "Generate a random startup idea to explore",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		spinner := getSpinner(" Dreaming one up...")
		idea, err := a.refiner.RandomIdea(cmd.Context())
		spinner.Finish()
		if err != nil {
			return err
		}

		fmt.Println()
		color.Cyan("%s", idea)
		return nil
	},
}

// waitForRound consumes round events until the round finishes, printing
// per-source progress. Returns the merged result count.
func waitForRound(events <-chan pipeline.Event, spinner *progressbar.ProgressBar) int {
	timeout := time.After(10 * time.Minute)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return 0
			}
			switch ev.Stage {
			case pipeline.StageSourceFinished:
				fmt.Print("\r")
				if ev.Error != "" {
					color.Red("✗ %s failed: %s", ev.Source, ev.Error)
				} else {
					color.Green("✓ %s: %d products", ev.Source, ev.Count)
				}
			case pipeline.StageRoundFinished:
				return ev.Count
			}
		case <-timeout:
			color.Red("\nTimed out waiting for the search round")
			return 0
		}
	}
}

func currentIDs(ctx context.Context, a *app, ideaID string) []string {
	idea, err := a.ideas.GetIdea(ctx, ideaID)
	if err != nil {
		return nil
	}
	return idea.SimilarProductIDs
}

func printProduct(p models.Product) {
	fmt.Println()
	color.New(color.FgCyan, color.Bold).Printf("%s", p.CompanyName)
	fmt.Printf("  [%s]\n", p.Source)
	if p.Tagline != "" {
		fmt.Printf("  %s\n", p.Tagline)
	}
	if p.Website != "" {
		color.Blue("  %s", p.Website)
	}
	for _, statement := range p.SimilarityAnalysis {
		fmt.Printf("  - %s\n", statement)
	}
}
