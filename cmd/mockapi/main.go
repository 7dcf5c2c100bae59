// Command mockapi serves a deterministic paginated catalog in the upstream
// API's wire format, for offline runs:
//
//	syncd -base-url http://localhost:9090/api/v3/lego -api-key test
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
)

type setEntry struct {
	SetNum    string `json:"set_num"`
	Name      string `json:"name"`
	Year      int    `json:"year"`
	ThemeID   int    `json:"theme_id"`
	NumParts  int    `json:"num_parts"`
	SetImgURL string `json:"set_img_url"`
	SetURL    string `json:"set_url"`
}

type pageBody struct {
	Next    *string    `json:"next"`
	Results []setEntry `json:"results"`
}

var themeIDs = []int{1, 52, 158, 494, 577, 610, 621}

// buildSets produces the same fixture on every start. A fixed seed keeps
// repeated syncs idempotent so merge-upsert behavior can be observed.
func buildSets(total int, seed int64) []setEntry {
	rnd := rand.New(rand.NewSource(seed))
	sets := make([]setEntry, 0, total)
	for i := 0; i < total; i++ {
		num := fmt.Sprintf("%d-1", 10000+i)
		pieces := 20 + rnd.Intn(5000)
		entry := setEntry{
			SetNum:    num,
			Name:      fmt.Sprintf("Mock Set %s", num),
			Year:      2023 + rnd.Intn(3),
			ThemeID:   themeIDs[rnd.Intn(len(themeIDs))],
			NumParts:  pieces,
			SetImgURL: fmt.Sprintf("https://cdn.example/sets/%s.jpg", num),
			SetURL:    fmt.Sprintf("https://sets.example/%s/", num),
		}
		// A few entries exercise the normalization filters.
		switch i % 25 {
		case 7:
			entry.SetImgURL = ""
		case 13:
			entry.NumParts = 5
		case 19:
			entry.Name = fmt.Sprintf("Mock Minifig Pack %s", num)
			entry.NumParts = 30
		}
		sets = append(sets, entry)
	}
	return sets
}

func main() {
	var (
		addr  = flag.String("addr", ":9090", "listen address")
		total = flag.Int("sets", 350, "number of sets in the fixture")
		seed  = flag.Int64("seed", 42, "fixture seed")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	sets := buildSets(*total, *seed)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/lego/sets/", func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", 1)
		pageSize := queryInt(r, "page_size", 100)
		if page < 1 || pageSize < 1 {
			http.Error(w, "bad page", http.StatusBadRequest)
			return
		}

		lo := (page - 1) * pageSize
		if lo >= len(sets) {
			http.Error(w, `{"detail":"Invalid page."}`, http.StatusNotFound)
			return
		}
		hi := lo + pageSize
		if hi > len(sets) {
			hi = len(sets)
		}

		body := pageBody{Results: sets[lo:hi]}
		if hi < len(sets) {
			next := fmt.Sprintf("http://%s%s?page=%d&page_size=%d", r.Host, r.URL.Path, page+1, pageSize)
			body.Next = &next
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
		log.Info("page_served", "page", page, "page_size", pageSize, "results", hi-lo)
	})

	log.Info("mockapi_listen", "addr", *addr, "sets", len(sets))
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Error("mockapi_failed", "error", err)
		os.Exit(1)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
