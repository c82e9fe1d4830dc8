// Package seed loads the demo catalog of games and tournaments. Running it
// against a populated database is a no-op.
package seed

import (
	"context"
	"time"

	"github.com/arenapulse/arena/pkg/arena"
)

// Run inserts the starter games and tournaments unless they already exist.
func Run(ctx context.Context, store arena.Store, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	existingGames, err := store.ListGames(ctx)
	if err != nil {
		return err
	}
	gamesByName := map[string]uint64{}
	for _, game := range existingGames {
		gamesByName[game.Name] = game.ID
	}
	if len(existingGames) == 0 {
		for _, game := range starterGames() {
			created, err := store.CreateGame(ctx, game)
			if err != nil {
				return err
			}
			gamesByName[created.Name] = created.ID
		}
	}

	existingTournaments, err := store.ListTournaments(ctx, arena.TournamentFilter{Scope: arena.ScopeAll})
	if err != nil {
		return err
	}
	if len(existingTournaments) > 0 {
		return nil
	}
	for _, tournament := range starterTournaments(now().UTC(), gamesByName) {
		if _, err := store.CreateTournament(ctx, tournament); err != nil {
			return err
		}
	}
	return nil
}

func starterGames() []arena.Game {
	return []arena.Game{
		{Name: "Free Fire", ImageURL: "https://freefiremobile-a.akamaihd.net/ffwebsite/images/freefire32-2.png"},
		{Name: "PUBG Mobile", ImageURL: "https://w7.pngwing.com/pngs/944/476/png-transparent-pubg-mobile.png"},
		{Name: "Call of Duty", ImageURL: "https://www.callofduty.com/content/dam/atvi/callofduty/hero/mw-wz/WZ-Season-Three-Announce-TOUT.jpg"},
		{Name: "Fortnite", ImageURL: "https://cdn2.unrealengine.com/24br-s24-egs-launcher-pdp-2560x1440-2a7353b5a438.jpg"},
	}
}

func starterTournaments(now time.Time, gamesByName map[string]uint64) []arena.Tournament {
	at := func(offset time.Duration) time.Time { return now.Add(offset) }
	endAt := func(offset time.Duration) *time.Time {
		value := now.Add(offset)
		return &value
	}
	return []arena.Tournament{
		{
			Title:          "Free Fire Pro League",
			GameID:         gamesByName["Free Fire"],
			Description:    "Battle for glory in the Free Fire Pro League",
			StartTime:      at(-time.Hour),
			EndTime:        endAt(2 * time.Hour),
			PrizePoolCents: 500000,
			EntryFeeCents:  10000,
			MaxPlayers:     100,
			CurrentPlayers: 32,
			Status:         arena.TournamentLive,
			TournamentType: "solo",
			Featured:       true,
			ImageURL:       "https://img.fresherslive.com/latestnews/images/articles/origin/2023/07/28/free-fire-max-tournament.jpg",
		},
		{
			Title:          "PUBG Mobile Cup",
			GameID:         gamesByName["PUBG Mobile"],
			Description:    "Compete in the PUBG Mobile Cup tournament",
			StartTime:      at(-30 * time.Minute),
			EndTime:        endAt(45 * time.Minute),
			PrizePoolCents: 1000000,
			EntryFeeCents:  5000,
			MaxPlayers:     100,
			CurrentPlayers: 78,
			Status:         arena.TournamentLive,
			TournamentType: "squad",
			Featured:       true,
			ImageURL:       "https://cdn.oneesports.gg/cdn-data/2022/05/PUBGM_PMPL_2022_Spring_SEA.jpg",
		},
		{
			Title:          "Call of Duty Championship",
			GameID:         gamesByName["Call of Duty"],
			Description:    "The ultimate Call of Duty showdown",
			StartTime:      at(48 * time.Hour),
			EndTime:        endAt(51 * time.Hour),
			PrizePoolCents: 1500000,
			EntryFeeCents:  20000,
			MaxPlayers:     64,
			Status:         arena.TournamentUpcoming,
			TournamentType: "team",
			ImageURL:       "https://www.callofduty.com/content/dam/atvi/callofduty/championships/2022/COD_Championships_Overview.jpg",
		},
		{
			Title:          "Fortnite Beginners Cup",
			GameID:         gamesByName["Fortnite"],
			Description:    "The perfect tournament for Fortnite beginners",
			StartTime:      at(72 * time.Hour),
			EndTime:        endAt(76 * time.Hour),
			PrizePoolCents: 200000,
			EntryFeeCents:  0,
			MaxPlayers:     50,
			Status:         arena.TournamentUpcoming,
			TournamentType: "solo",
			ImageURL:       "https://cdn2.unrealengine.com/fortnite-competitive-update-chapter-2-season-6.jpg",
		},
		{
			Title:          "Free Fire World Series",
			GameID:         gamesByName["Free Fire"],
			Description:    "The biggest Free Fire tournament of the year",
			StartTime:      at(24 * time.Hour),
			EndTime:        endAt(29 * time.Hour),
			PrizePoolCents: 2500000,
			EntryFeeCents:  10000,
			MaxPlayers:     100,
			Status:         arena.TournamentUpcoming,
			TournamentType: "solo",
			Featured:       true,
			ImageURL:       "https://staticg.sportskeeda.com/editor/2023/11/free-fire-world-series.jpg",
		},
		{
			Title:          "Call of Duty Practice Match",
			GameID:         gamesByName["Call of Duty"],
			Description:    "Practice your skills in this free tournament",
			StartTime:      at(24 * time.Hour),
			EndTime:        endAt(26 * time.Hour),
			PrizePoolCents: 50000,
			EntryFeeCents:  0,
			MaxPlayers:     50,
			Status:         arena.TournamentUpcoming,
			TournamentType: "solo",
			ImageURL:       "https://assets.xboxservices.com/assets/cod-practice-match.jpg",
		},
	}
}
