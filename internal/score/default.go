package score

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"time"

	"git.lost.host/meutraa/musicblocks/internal/config"
	"git.lost.host/meutraa/musicblocks/internal/game"
	_ "github.com/mattn/go-sqlite3"
)

type DefaultRecorder struct {
	db *sql.DB
}

// styleHitsCompact is the stored form of per-style hit counts, sorted
// by style so the stored blob is deterministic.
type styleHitsCompact struct {
	Style string
	Count int
}

func compactStyleHits(hits map[string]int) []styleHitsCompact {
	compact := make([]styleHitsCompact, 0, len(hits))
	for style, count := range hits {
		compact = append(compact, styleHitsCompact{Style: style, Count: count})
	}
	sort.Slice(compact, func(i, j int) bool {
		return compact[i].Style < compact[j].Style
	})
	return compact
}

func uncompactStyleHits(compact []styleHitsCompact) map[string]int {
	hits := map[string]int{}
	for _, c := range compact {
		hits[c.Style] = c.Count
	}
	return hits
}

func (s *DefaultRecorder) Init() error {
	db, err := sql.Open("sqlite3", *config.Database)
	if nil != err {
		return err
	}

	initStatement := `
	create table if not exists results
	  (
		  id integer not null primary key,
		  sum text,
		  score integer,
		  notes_hit integer,
		  best_streak integer,
		  accuracy real,
		  play_time_ms integer,
		  won integer,
		  style_hits bytearray
	  );
	`
	_, err = db.Exec(initStatement)
	if nil != err {
		return err
	}

	s.db = db
	return nil
}

func (s *DefaultRecorder) Deinit() {
	if nil != s.db {
		s.db.Close()
	}
}

// hashLevel identifies a level by its rule content, not its file name,
// so renaming a file keeps its history.
func (s *DefaultRecorder) hashLevel(l *game.Level) string {
	var b strings.Builder
	b.WriteString(l.Name)
	b.WriteString(l.Objective.Type)
	for _, style := range l.Styles {
		b.WriteString(style.Name)
		b.WriteString(strings.Join(style.Notes, ","))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *DefaultRecorder) RecordResult(level *game.Level, result game.Result) {
	data, err := json.Marshal(compactStyleHits(result.StyleHits))
	if nil != err {
		log.Println("unable to marshal style hits", err)
		return
	}
	_, err = s.db.Exec(
		"insert into results(sum, score, notes_hit, best_streak, accuracy, play_time_ms, won, style_hits) values(?, ?, ?, ?, ?, ?, ?, ?)",
		s.hashLevel(level),
		result.Score,
		result.NotesHit,
		result.BestStreak,
		result.Accuracy,
		result.PlayTime.Milliseconds(),
		result.Won,
		data,
	)
	if nil != err {
		log.Println("unable to save result", err)
		return
	}
}

func (s *DefaultRecorder) Load(level *game.Level) []Entry {
	entries := []Entry{}
	rows, err := s.db.Query(
		"select sum, score, notes_hit, best_streak, accuracy, play_time_ms, won, style_hits from results where sum = ?",
		s.hashLevel(level),
	)
	if nil != err && err != sql.ErrNoRows {
		log.Println("unable to load results", err)
		return entries
	}
	defer rows.Close()
	for rows.Next() {
		var sum string
		var blob []byte
		var playTimeMs int64
		var r game.Result
		rows.Scan(&sum, &r.Score, &r.NotesHit, &r.BestStreak, &r.Accuracy, &playTimeMs, &r.Won, &blob)
		r.PlayTime = time.Duration(playTimeMs) * time.Millisecond
		var compact []styleHitsCompact
		if err := json.Unmarshal(blob, &compact); nil != err {
			log.Println("unable to unmarshal style hits")
			continue
		}
		r.StyleHits = uncompactStyleHits(compact)
		entries = append(entries, Entry{Sum: sum, Result: r})
	}
	return entries
}
