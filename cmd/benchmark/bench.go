package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	mockPort  = 9091
	appPort   = 8081
	debugAddr = "127.0.0.1:6060"
)

// selectBodies rotate through the common request shapes so ranking, relaxation
// and scoring all see traffic.
var selectBodies = [][]byte{
	[]byte(`{"strategy":"cost","capabilities":["function_calling"]}`),
	[]byte(`{"strategy":"context","min_context":100000,"limit":3}`),
	[]byte(`{"strategy":"latest","prefer":["anthropic"],"include_scores":true}`),
	[]byte(`{"strategy":"performance","capabilities":["vision","function_calling"],"max_input_cost":0.00001,"relax":true}`),
	[]byte(`{"strategy":"cost","avoid_patterns":["*-preview","openai/*"],"limit":10}`),
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 200, "Requests per second")
	models := flag.Int("models", 300, "Number of models served by the mock listing")
	flag.Parse()

	go startMockServer(*models)

	fmt.Println("Building application...")
	buildCmd := exec.Command("go", "build", "-o", "bin/server", "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	configFile := "bench_config.yaml"
	if err := os.WriteFile(configFile, []byte(benchConfig), 0644); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	defer os.Remove(configFile)

	fmt.Println("Starting application...")
	cmd := exec.Command("./bin/server")
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("CONFIG_FILE=%s", configFile),
		fmt.Sprintf("SERVER_PORT=%d", appPort),
		"SERVER_DEBUG_ADDR="+debugAddr,
		"LOG_LEVEL=error",
		"NO_COLOR=1",
	)

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}()

	waitForApp(fmt.Sprintf("http://localhost:%d/health", appPort))

	done := make(chan struct{})
	go func() {
		time.Sleep(2 * time.Second)
		monitorResources(cmd.Process.Pid, done)
	}()

	fmt.Printf("Running select benchmark: %s duration, %d req/s, %d models\n", *duration, *rate, *models)

	url := fmt.Sprintf("http://localhost:%d/v1/select", appPort)
	var n atomic.Uint64
	targeter := func(t *vegeta.Target) error {
		t.Method = http.MethodPost
		t.URL = url
		t.Body = selectBodies[(n.Add(1)-1)%uint64(len(selectBodies))]
		t.Header = http.Header{"Content-Type": []string{"application/json"}}
		return nil
	}

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Benchmark") {
		metrics.Add(res)
	}
	metrics.Close()
	close(done)

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5 unique):")
		seen := make(map[string]bool)
		for _, msg := range metrics.Errors {
			if !seen[msg] && len(seen) < 5 {
				fmt.Println(msg)
				seen[msg] = true
			}
		}
	}

	os.Remove("bench_models.json")
}

// startMockServer serves a synthetic OpenRouter listing with n models spread
// over a handful of providers.
func startMockServer(n int) {
	providers := []string{"openai", "anthropic", "google", "mistralai", "meta-llama", "qwen"}
	params := [][]string{
		{"tools", "tool_choice", "response_format"},
		{"tools", "tool_choice"},
		{"temperature", "top_p"},
	}
	modalities := [][]string{{"text"}, {"text", "image"}, {"text", "image", "file"}}

	type pricing struct {
		Prompt     string `json:"prompt"`
		Completion string `json:"completion"`
	}
	type architecture struct {
		InputModalities []string `json:"input_modalities"`
	}
	type model struct {
		ID                  string       `json:"id"`
		Name                string       `json:"name"`
		Created             int64        `json:"created"`
		ContextLength       int          `json:"context_length"`
		Pricing             pricing      `json:"pricing"`
		Architecture        architecture `json:"architecture"`
		SupportedParameters []string     `json:"supported_parameters"`
	}

	rng := rand.New(rand.NewSource(42))
	data := make([]model, 0, n)
	for i := 0; i < n; i++ {
		p := providers[i%len(providers)]
		suffix := ""
		if i%11 == 0 {
			suffix = "-preview"
		}
		prompt := rng.Float64() * 0.00003
		data = append(data, model{
			ID:                  fmt.Sprintf("%s/model-%d%s", p, i, suffix),
			Name:                fmt.Sprintf("Model %d", i),
			Created:             1680000000 + int64(rng.Intn(50000000)),
			ContextLength:       []int{4096, 8192, 32768, 128000, 200000, 1000000}[rng.Intn(6)],
			Pricing:             pricing{Prompt: strconv.FormatFloat(prompt, 'f', -1, 64), Completion: strconv.FormatFloat(prompt*3, 'f', -1, 64)},
			Architecture:        architecture{InputModalities: modalities[rng.Intn(len(modalities))]},
			SupportedParameters: params[rng.Intn(len(params))],
		})
	}
	listing, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		log.Fatalf("Failed to build mock listing: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(listing)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	_ = http.ListenAndServe(fmt.Sprintf(":%d", mockPort), mux)
}

func monitorResources(pid int, done chan struct{}) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	fmt.Println("\n--- Resource Usage (expvar + ps) ---")
	fmt.Printf("% -10s % -10s % -10s % -10s\n", "Time", "Heap(MB)", "Alloc(MB)", "CPU(%)")

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			resp, err := http.Get("http://" + debugAddr + "/debug/vars")
			if err != nil {
				fmt.Printf("DEBUG: monitorResources failed to reach expvar: %v\n", err)
				continue
			}

			var vars struct {
				MemStats struct {
					HeapInuse uint64 `json:"HeapInuse"`
					Alloc     uint64 `json:"Alloc"`
				} `json:"memstats"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&vars); err != nil {
				resp.Body.Close()
				continue
			}
			resp.Body.Close()

			cpu := 0.0
			out, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "%cpu").Output()
			if err == nil {
				lines := strings.Split(strings.TrimSpace(string(out)), "\n")
				if len(lines) >= 2 {
					cpu, _ = strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
				}
			}

			fmt.Printf("% -10s % -10.2f % -10.2f % -10.2f\n",
				time.Now().Format("15:04:05"),
				float64(vars.MemStats.HeapInuse)/1024/1024,
				float64(vars.MemStats.Alloc)/1024/1024,
				cpu,
			)
		}
	}
}

func waitForApp(url string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("App timed out")
}

var benchConfig = fmt.Sprintf(`
server:
  port: "%d"
  env: production
  check_updates: false
  rate_limit:
    requests_per_second: 0
registry:
  base_url: "http://localhost:%d/api/v1"
  timeout: 5s
  cache:
    driver: file
    path: "bench_models.json"
log:
  level: "error"
  format: "json"
`, appPort, mockPort)
