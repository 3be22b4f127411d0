package crossword

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/blarphus/crossword/internal/store"
)

const (
	correctBase      = 10
	correctRebusBase = 50
	wrongDelta       = -30
	wordBonusOne     = 50
	wordBonusTwo     = 250
	lastSquareBonus  = 250
)

// CellUpdate runs the full authoritative cell-edit pipeline shared by
// human edits and bot fills (spec §4.2 cell-update, and §4.3's "run
// the same cell-update pipeline as a human edit").
func (r *Room) CellUpdate(socketID string, row, col int, letter string) {
	key := store.CellKey{Row: row, Col: col}
	ctx := context.Background()

	r.mu.Lock()
	m, ok := r.memberships[socketID]
	if !ok {
		r.mu.Unlock()
		return
	}

	if letter == "" {
		delete(r.sharedGrid, key)
		delete(r.cellFillers, key)
	} else {
		r.sharedGrid[key] = letter
		r.cellFillers[key] = Filler{Kind: FillerHuman, Name: m.UserName}
	}

	date := r.Date
	fillerName := ""
	if letter != "" {
		fillerName = m.UserName
	}
	go func() {
		if err := r.store.UpsertCell(ctx, date, row, col, letter); err != nil {
			log.Printf("crossword: upsert cell %s (%d,%d): %v", date, row, col, err)
		}
		if err := r.store.UpsertCellFiller(ctx, date, row, col, fillerName); err != nil {
			log.Printf("crossword: upsert filler %s (%d,%d): %v", date, row, col, err)
		}
	}()

	isHintCell := r.hint.HintCells[key]
	correct, hasCorrect := r.puzzle.CorrectAnswer(row, col)

	scored := letter != "" && !isHintCell && hasCorrect
	var (
		delta           int
		wordBonus       int
		fireEvent       string
		guessCorrect    bool
		resetHintVote   bool
		completedBoard  bool
		userName        = m.UserName
	)

	if scored {
		isRebus := false
		if _, ok := r.puzzle.Rebus[key]; ok {
			isRebus = len(letter) > 1
		}
		base := correctBase
		if isRebus {
			base = correctRebusBase
		}

		guessCorrect = letter == correct
		wasOnFire := m.Fire.OnFire

		if guessCorrect {
			if wasOnFire {
				delta = int(math.Round(float64(base) * m.Fire.Multiplier))
			} else {
				delta = base
			}
		} else {
			delta = wrongDelta
			m.Fire.Recent = nil
			if wasOnFire {
				r.clearFireLocked(m)
				fireEvent = "broken"
			}
		}

		r.points[userName] += delta
		gs := r.guesses[userName]
		gs.Total++
		if !guessCorrect {
			gs.Incorrect++
		}
		r.guesses[userName] = gs
		go func() {
			if err := r.store.AddPoints(ctx, date, userName, delta); err != nil {
				log.Printf("crossword: add points %s/%s: %v", date, userName, err)
			}
			if err := r.store.AddGuess(ctx, date, userName, guessCorrect); err != nil {
				log.Printf("crossword: add guess %s/%s: %v", date, userName, err)
			}
		}()

		if guessCorrect {
			completed, wordCells := r.countWordCompletionsLocked(key)
			switch {
			case completed >= 2:
				wordBonus = wordBonusTwo
			case completed == 1:
				wordBonus = wordBonusOne
			}
			if wasOnFire && wordBonus > 0 {
				wordBonus = int(math.Round(float64(wordBonus) * m.Fire.Multiplier))
			}

			if wordBonus > 0 {
				r.points[userName] += wordBonus
				go func() {
					if err := r.store.AddPoints(ctx, date, userName, wordBonus); err != nil {
						log.Printf("crossword: add word bonus %s/%s: %v", date, userName, err)
					}
				}()
				r.hint.Available = false
				r.hint.Votes = map[string]bool{}
				resetHintVote = true

				now := time.Now()
				if wasOnFire {
					m.Fire.ExpiresAt = m.Fire.ExpiresAt.Add(fireExtendBy)
					m.Fire.WordsCompletedOnFire += completed
					m.Fire.Multiplier = fireMultiplierFor(m.Fire.WordsCompletedOnFire)
					m.Fire.FireCells = r.allUserFilledCellsLocked(userName)
					r.armFireExpiryLocked(m)
					fireEvent = "extended"
				} else {
					m.Fire.Recent = append(m.Fire.Recent, WordCompletion{At: now, Count: completed, Cells: wordCells})
					var sum int
					m.Fire.Recent, sum = pruneRecent(m.Fire.Recent, now)
					if sum >= fireIgnitionCount {
						m.Fire.OnFire = true
						m.Fire.ExpiresAt = now.Add(fireWindow)
						m.Fire.Multiplier = 1.5
						m.Fire.WordsCompletedOnFire = 0
						m.Fire.FireCells = r.allUserFilledCellsLocked(userName)
						m.Fire.Recent = nil
						r.armFireExpiryLocked(m)
						fireEvent = "started"
					}
				}
			}

			if !r.completed && r.allCellsFilledCorrectly() {
				r.completed = true
				completedBoard = true
				delta += lastSquareBonus
				r.points[userName] += lastSquareBonus
				go func() {
					if err := r.store.AddPoints(ctx, date, userName, lastSquareBonus); err != nil {
						log.Printf("crossword: add last-square bonus %s/%s: %v", date, userName, err)
					}
				}()
			}
		}
	}

	var evictBots []string
	if completedBoard {
		for sid, mem := range r.memberships {
			if mem.IsBot {
				evictBots = append(evictBots, sid)
			}
		}
		if len(evictBots) > 0 {
			r.sched.CancelPrefix("bot:")
		}
	}

	fireSnapshot := m.Fire
	humanTotal := r.humanCount()
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "cell-updated", map[string]interface{}{
		"row":          row,
		"col":          col,
		"letter":       letter,
		"socketId":     socketID,
		"userName":     userName,
		"scored":       scored,
		"guessCorrect": guessCorrect,
		"delta":        delta,
		"wordBonus":    wordBonus,
		"fireEvent":    fireEvent,
		"completed":    completedBoard,
	})

	if fireEvent == "started" || fireEvent == "extended" {
		r.transport.EmitToRoom(r.RoomName(), "fire-update", map[string]interface{}{
			"socketId":   socketID,
			"type":       fireEvent,
			"multiplier": fireSnapshot.Multiplier,
			"expiresAt":  fireSnapshot.ExpiresAt,
		})
	}
	if resetHintVote {
		r.transport.EmitToRoom(r.RoomName(), "hint-vote-update", map[string]interface{}{"votes": 0, "total": humanTotal})
	}

	for _, sid := range evictBots {
		r.RemoveBot(sid)
	}

	r.scheduleProgress()
}
