package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/utakatalp/match-simulator/internal/league"
	"github.com/utakatalp/match-simulator/internal/simulator"
	"github.com/utakatalp/match-simulator/internal/store"
)

const simulateOwner = "cli"

type simulateOptions struct {
	seed      int64
	strengthA float64
	strengthB float64
	groupSize int
}

func newSimulateCommand() *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play matches in memory and print the result",
		Long: `Plays a single match (default) or a full round-robin group in memory,
ticking as fast as possible, and prints the match log or the final table.

Example:
  match-simulator simulate --seed 42 --strength-a 0.8 --strength-b 0.4
  match-simulator simulate --group 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.seed == 0 {
				opts.seed = time.Now().UnixNano()
			}
			if opts.groupSize > 0 {
				return simulateGroup(cmd.Context(), cmd.OutOrStdout(), opts)
			}
			return simulateMatch(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 picks one from the clock)")
	cmd.Flags().Float64Var(&opts.strengthA, "strength-a", 0.5, "strength of the home side")
	cmd.Flags().Float64Var(&opts.strengthB, "strength-b", 0.5, "strength of the away side")
	cmd.Flags().IntVar(&opts.groupSize, "group", 0, "play a round-robin group of this many teams instead")
	return cmd
}

func newOfflineService(seed int64) *simulator.Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	engine := league.NewEngine(league.DefaultRules(), league.NewRand(seed), uuid.NewString)
	return simulator.NewService(store.NewMemory(), engine, log, simulator.Options{})
}

// playOut starts a match and drives it to the final whistle, shootout included.
func playOut(ctx context.Context, svc *simulator.Service, id string) (*league.Match, error) {
	m, err := svc.StartMatch(ctx, simulateOwner, id)
	if err != nil {
		return nil, err
	}
	for m.Status.Active() {
		if m, err = svc.Tick(ctx, simulateOwner, id); err != nil {
			return nil, err
		}
	}
	for m.Status == league.StatusPenalties {
		if m, err = svc.Kick(ctx, simulateOwner, id); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func simulateMatch(ctx context.Context, w io.Writer, opts *simulateOptions) error {
	svc := newOfflineService(opts.seed)
	home, err := svc.CreateTeam(ctx, simulateOwner, simulator.TeamInput{Name: "Home", ShortName: "HOM", Strength: opts.strengthA})
	if err != nil {
		return err
	}
	away, err := svc.CreateTeam(ctx, simulateOwner, simulator.TeamInput{Name: "Away", ShortName: "AWY", Strength: opts.strengthB})
	if err != nil {
		return err
	}
	matches, err := svc.ScheduleMatch(ctx, simulateOwner, simulator.FixtureInput{
		TeamAID: home.ID, TeamBID: away.ID, StartTime: time.Now(),
	})
	if err != nil {
		return err
	}
	m, err := playOut(ctx, svc, matches[0].ID)
	if err != nil {
		return err
	}

	for _, ev := range m.Events {
		fmt.Fprintf(w, "%3d' %s\n", ev.Minute, ev.Text)
	}
	fmt.Fprintf(w, "\nFinal: %s %d - %d %s", home.Name, m.ScoreA, m.ScoreB, away.Name)
	if p := m.Penalties; p != nil {
		fmt.Fprintf(w, " (%d-%d on penalties)", p.ScoreA, p.ScoreB)
	}
	fmt.Fprintf(w, "\nShots %d-%d, on target %d-%d, corners %d-%d, possession %d%%\n",
		m.Stats.A.Shots, m.Stats.B.Shots, m.Stats.A.OnTarget, m.Stats.B.OnTarget,
		m.Stats.A.Corners, m.Stats.B.Corners, m.Stats.Possession)
	fmt.Fprintf(w, "seed %d\n", opts.seed)
	return nil
}

func simulateGroup(ctx context.Context, w io.Writer, opts *simulateOptions) error {
	svc := newOfflineService(opts.seed)
	tr, err := svc.CreateTournament(ctx, simulateOwner, "Simulation")
	if err != nil {
		return err
	}
	tr, err = svc.AddGroup(ctx, simulateOwner, tr.ID, "Group A", 2)
	if err != nil {
		return err
	}
	group := tr.Groups[0]

	for i := 1; i <= opts.groupSize; i++ {
		// spread strengths evenly between 0.3 and 0.9
		strength := 0.6
		if opts.groupSize > 1 {
			strength = 0.3 + 0.6*float64(i-1)/float64(opts.groupSize-1)
		}
		t, err := svc.CreateTeam(ctx, simulateOwner, simulator.TeamInput{Name: fmt.Sprintf("Team %d", i), Strength: strength})
		if err != nil {
			return err
		}
		if _, err := svc.AddTeamToGroup(ctx, simulateOwner, tr.ID, group.ID, t.ID); err != nil {
			return err
		}
	}

	matches, err := svc.ScheduleGroupRoundRobin(ctx, simulateOwner, tr.ID, group.ID, time.Now(), false)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if _, err := playOut(ctx, svc, m.ID); err != nil {
			return err
		}
	}

	table, err := svc.Standings(ctx, simulateOwner, tr.ID, group.ID)
	if err != nil {
		return err
	}
	league.PrintTable(w, group.Name, table)
	fmt.Fprintf(w, "seed %d\n", opts.seed)
	return nil
}
