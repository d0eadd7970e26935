// Package main seeds the document store with a sample club tree: a public and a
// private club, each with boats, trophies and winners.
//
// Run it against a stopped server; boat names are written as current, so no
// propagation is needed.
//
// Usage:
//
//	STORE_PATH=~/ClubTrophies/data go run ./cmd/seed -admin my-uid
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/config"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/service"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/validation"
)

// sampleClub describes one seeded club.
type sampleClub struct {
	name     string
	public   bool
	boats    []string
	trophies []sampleTrophy
}

type sampleTrophy struct {
	name    string
	public  bool
	boat    string // linked boat name, empty for none
	winners []sampleWinner
}

type sampleWinner struct {
	year     int
	sail     string
	helm     string
	boat     string // linked boat name, empty for a free-text name
	name     string
	suppress bool
}

var samples = []sampleClub{
	{
		name:   "Royal Cork Yacht Club",
		public: true,
		boats:  []string{"Spirit", "Jump Juice", "Nieulargo"},
		trophies: []sampleTrophy{
			{
				name:   "Helmsman's Cup",
				public: true,
				boat:   "Spirit",
				winners: []sampleWinner{
					{year: 1998, sail: "IRL 1234", helm: "A. Murphy", boat: "Spirit"},
					{year: 1999, sail: "IRL 1234", helm: "A. Murphy", boat: "Spirit"},
					{year: 2000, sail: "IRL 2160", helm: "C. O'Brien", boat: "Jump Juice"},
					{year: 2001, sail: "GBR 7", helm: "D. Walsh", name: "Wee Dram"},
				},
			},
			{
				name:   "Commodore's Salver",
				public: false,
				winners: []sampleWinner{
					{year: 2005, sail: "IRL 1234", helm: "A. Murphy", boat: "Spirit"},
					{year: 2006, sail: "IRL 2129", helm: "E. Kelly", boat: "Nieulargo", suppress: true},
				},
			},
		},
	},
	{
		name:   "Howth Yacht Club",
		public: false,
		boats:  []string{"Storm"},
		trophies: []sampleTrophy{
			{
				name:   "Lambay Race Trophy",
				public: true,
				winners: []sampleWinner{
					{year: 2010, sail: "IRL 4007", helm: "F. Byrne", boat: "Storm"},
					{year: 2011, sail: "IRL 1234", helm: "A. Murphy", name: "Spirit"},
				},
			},
		},
	},
}

func main() {
	path := flag.String("store-path", os.Getenv("STORE_PATH"), "Directory of the document store (default: ~/ClubTrophies/data)")
	admin := flag.String("admin", "seed-admin", "Uid that administers the seeded clubs")
	flag.Parse()

	log := logger.New(logger.Config{Level: slog.LevelWarn})

	dbPath, err := config.ExpandStorePath(*path)
	if err != nil {
		log.Fatal("Failed to resolve store path", "error", err)
	}

	fmt.Printf("Opening store at: %s\n", dbPath)

	s, err := store.Open(store.Options{Path: dbPath, Indexes: domain.IndexedFields()})
	if err != nil {
		log.Fatal("Failed to open store", "error", err)
	}
	defer s.Close()

	clubs := service.NewClubService(s, validation.New(), log.Logger)
	viewer := domain.User(*admin)
	ctx := context.Background()

	for _, sample := range samples {
		clubID, err := seedClub(ctx, clubs, viewer, sample)
		if err != nil {
			log.WithClub(sample.name).Fatal("Failed to seed club", "error", err)
		}
		visibility := "private"
		if sample.public {
			visibility = "public"
		}
		fmt.Printf("Seeded %s (%s): %s\n", sample.name, visibility, clubID)
	}

	fmt.Printf("Done. Clubs are administered by %q.\n", *admin)
}

func seedClub(ctx context.Context, clubs *service.ClubService, viewer domain.Viewer, sample sampleClub) (string, error) {
	club, err := clubs.CreateClub(ctx, viewer, service.CreateClubRequest{
		Name:   sample.name,
		Public: sample.public,
	})
	if err != nil {
		return "", fmt.Errorf("create club: %w", err)
	}

	boatIDs := make(map[string]string, len(sample.boats))
	for _, name := range sample.boats {
		boat, err := clubs.CreateBoat(ctx, viewer, club.ID, service.CreateBoatRequest{Name: name})
		if err != nil {
			return "", fmt.Errorf("create boat %s: %w", name, err)
		}
		boatIDs[name] = boat.ID
	}

	for _, t := range sample.trophies {
		trophy, err := clubs.CreateTrophy(ctx, viewer, club.ID, service.CreateTrophyRequest{
			Name:   t.name,
			Public: t.public,
			BoatID: boatIDs[t.boat],
		})
		if err != nil {
			return "", fmt.Errorf("create trophy %s: %w", t.name, err)
		}

		for _, w := range t.winners {
			_, err := clubs.CreateWinner(ctx, viewer, club.ID, trophy.ID, service.CreateWinnerRequest{
				WinnerFields: service.WinnerFields{
					Year: w.year,
					Sail: w.sail,
					Helm: w.helm,
					Name: w.name,
				},
				BoatID:   boatIDs[w.boat],
				Suppress: w.suppress,
			})
			if err != nil {
				return "", fmt.Errorf("create %d winner of %s: %w", w.year, t.name, err)
			}
		}
	}

	return club.ID, nil
}
