// notifier posts signed callback notifications to a running `walletkit serve`
// and reports the status and latency of each attempt.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/YasiruR/walletkit/domain"
	wklog "github.com/YasiruR/walletkit/log"
	"github.com/YasiruR/walletkit/reqrep/mock"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/tryfix/log"
)

const attempts = 3

func main() {
	var endpoint, keyFile, passFile, header string
	pflag.StringVar(&endpoint, `endpoint`, `http://localhost:8080`+domain.CallbackEndpoint, `callback endpoint`)
	pflag.StringVar(&keyFile, `key`, `callback.pem`, `private key used to sign notifications`)
	pflag.StringVar(&passFile, `passes`, `passes.csv`, `csv of event type and pass number rows`)
	pflag.StringVar(&header, `header`, domain.DefaultSignatureHeader, `signature header`)
	pflag.Parse()

	key, err := os.ReadFile(keyFile)
	if err != nil {
		log.Fatal(fmt.Sprintf(`reading key failed - %v`, err))
	}

	gw, err := mock.New(mock.Params{CallbackPrivateKey: string(key), SignatureHeader: header}, wklog.NewLogger(false, `ERROR`))
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Open(passFile)
	if err != nil {
		log.Fatal(fmt.Sprintf(`opening file failed - %v`, err))
	}
	events, passes, err := read(f)
	f.Close()
	if err != nil {
		log.Fatal(fmt.Sprintf(`reading passes failed - %v`, err))
	}

	for i, event := range events {
		fmt.Printf("# %s notification for %s\n", event, passes[i])
		var latencies []int64
		for j := 0; j < attempts; j++ {
			latency, err := notify(gw, endpoint, event, passes[i])
			if err != nil {
				fmt.Printf("	> attempt %d failed: %s\n", j, err)
				continue
			}
			latencies = append(latencies, latency)
			fmt.Printf("	> attempt %d: %d ms\n", j, latency)
		}

		if avg, ok := average(latencies); ok {
			fmt.Printf("  average: %d ms\n\n", avg)
			continue
		}
		fmt.Printf("  average: n/a (no successful attempt)\n\n")
	}
}

// read expects rows of exactly two columns, the event type and the pass number
func read(r io.Reader) (events []string, passes []string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	for _, row := range records {
		events = append(events, row[0])
		passes = append(passes, row[1])
	}

	return events, passes, nil
}

// average is taken over successful attempts only
func average(latencies []int64) (int64, bool) {
	if len(latencies) == 0 {
		return 0, false
	}

	var total int64
	for _, l := range latencies {
		total += l
	}
	return total / int64(len(latencies)), true
}

func notify(gw *mock.Gateway, endpoint, event, pass string) (int64, error) {
	body, err := json.Marshal(map[string]interface{}{
		`eventId`:    uuid.New().String(),
		`eventTime`:  time.Now().UnixMilli(),
		`eventType`:  event,
		`passNumber`: pass,
	})
	if err != nil {
		return 0, fmt.Errorf(`marshalling notification failed - %v`, err)
	}

	start := time.Now()
	status, err := gw.Notify(context.Background(), endpoint, body)
	if err != nil {
		return 0, err
	}
	latency := time.Since(start).Milliseconds()

	if status != 200 {
		return 0, fmt.Errorf(`server returned status %d`, status)
	}

	return latency, nil
}
