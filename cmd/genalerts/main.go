// Command genalerts serves a mock disaster-message feed for local
// development. Point DISASTER_API_URL at it to exercise the pipeline
// without hitting the public portal.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

type mockMessage struct {
	Serial    int64  `json:"MD101_SN"`
	Category  string `json:"DSSTR_SE_NM"`
	AreaName  string `json:"RCV_AREA_NM"`
	Message   string `json:"MSG"`
	Emergency string `json:"EMRG_STEP_NM"`
	CreatedAt string `json:"CRT_DT"`
}

var samples = []mockMessage{
	{
		Category:  "호우",
		AreaName:  "제주특별자치도 제주시",
		Message:   "호우경보 발령. 하천변, 지하차도 등 침수 위험지역 접근을 자제하고 안전에 유의 바랍니다.",
		Emergency: "안전안내",
	},
	{
		Category:  "지진",
		AreaName:  "제주특별자치도",
		Message:   "제주 해역 규모 4.2 지진 발생. 낙하물에 주의하고 여진에 대비하세요.",
		Emergency: "긴급재난",
	},
	{
		Category:  "산불",
		AreaName:  "제주특별자치도 서귀포시",
		Message:   "산불 확산 중. 인근 주민은 안전한 곳으로 대피하세요.",
		Emergency: "긴급재난",
	},
	{
		Category:  "태풍",
		AreaName:  "제주특별자치도",
		Message:   "태풍 북상 중. 해안가 접근을 금지하고 외출을 자제하세요.",
		Emergency: "안전안내",
	},
}

// feed mints a fresh alert every interval so dedup has something new to
// accept each time.
type feed struct {
	mu         sync.Mutex
	nextSerial int64
	current    []mockMessage
	interval   time.Duration
}

func newFeed(interval time.Duration) *feed {
	return &feed{nextSerial: 900001, interval: interval}
}

func (f *feed) run() {
	f.mint()
	for range time.Tick(f.interval) {
		f.mint()
	}
}

func (f *feed) mint() {
	f.mu.Lock()
	defer f.mu.Unlock()

	sample := samples[int(f.nextSerial)%len(samples)]
	sample.Serial = f.nextSerial
	sample.CreatedAt = time.Now().Format("2006/01/02 15:04:05")
	f.nextSerial++

	f.current = append(f.current, sample)
	if len(f.current) > 50 {
		f.current = f.current[len(f.current)-50:]
	}
}

func (f *feed) snapshot() []mockMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]mockMessage, len(f.current))
	copy(out, f.current)
	return out
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	interval := flag.Duration("interval", time.Minute, "how often to mint a new alert")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	f := newFeed(*interval)
	go f.run()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(f.snapshot()); err != nil {
			logger.Error("encode feed", "error", err)
		}
	})

	logger.Info("mock disaster feed listening", "addr", *addr, "interval", *interval)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		fmt.Fprintf(os.Stderr, "genalerts: %v\n", err)
		os.Exit(1)
	}
}
