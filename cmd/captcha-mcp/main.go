package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ironsheep/captcha-tools-mcp/internal/charset"
	"github.com/ironsheep/captcha-tools-mcp/internal/config"
	"github.com/ironsheep/captcha-tools-mcp/internal/model"
	"github.com/ironsheep/captcha-tools-mcp/internal/onnx"
	"github.com/ironsheep/captcha-tools-mcp/internal/server"
	"github.com/ironsheep/captcha-tools-mcp/internal/solver"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// sessionThreads is the intra-op thread count of each runner. Parallelism
// comes from the pool instead.
const sessionThreads = 1

func main() {
	var envFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--version" || arg == "-v" || arg == "version":
			fmt.Printf("captcha-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case arg == "--help" || arg == "-h" || arg == "help":
			printHelp()
			return
		case arg == "--env-file":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--env-file needs a path")
				os.Exit(2)
			}
			i++
			envFile = args[i]
		case strings.HasPrefix(arg, "--env-file="):
			envFile = strings.TrimPrefix(arg, "--env-file=")
		default:
			fmt.Fprintf(os.Stderr, "unknown argument: %s\n", arg)
			os.Exit(2)
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := run(envFile); err != nil {
		log.Fatal(err)
	}
}

// cleanup runs release functions in reverse order of registration.
type cleanup []func() error

func (c *cleanup) push(fn func() error) {
	*c = append(*c, fn)
}

func (c cleanup) run() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}
}

// run loads the engines and serves until stdin closes. Every engine built
// before a failure is released before run returns.
func run(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if cfg.Debug() {
		log.Printf("Captcha MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	var release cleanup
	defer release.run()

	opts := []server.Option{server.WithDebug(cfg.Debug())}

	if cfg.NeedsRuntime() {
		env, err := onnx.NewEnvironment(cfg.ORTLibrary)
		if err != nil {
			return fmt.Errorf("ONNX Runtime error: %w", err)
		}
		release.push(env.Close)

		engineOpts := []solver.Option{solver.WithTimeout(cfg.CallTimeout)}

		models := []struct {
			name, model, charset string
		}{
			{"beta", cfg.OCRModel, cfg.OCRCharset},
			{"old", cfg.OCROldModel, cfg.OCROldCharset},
			{"diy", cfg.CustomModel, cfg.CustomCharset},
		}
		for _, m := range models {
			if m.model == "" {
				continue
			}
			c, err := loadClassifier(env, cfg, m.model, m.charset, engineOpts)
			if err != nil {
				return fmt.Errorf("model %s: %w", m.name, err)
			}
			release.push(c.Close)
			opts = append(opts, server.WithClassifier(m.name, c))
			if cfg.Debug() {
				log.Printf("Loaded model %s (%s, %d symbols) from %s", m.name, c.Kind(), len(c.Charset().Charset), m.model)
			}
		}

		if cfg.DetectorModel != "" {
			pool, err := model.NewPool(cfg.PoolSize, onnx.Factory(env, cfg.DetectorModel, sessionThreads))
			if err != nil {
				return fmt.Errorf("detector: %w", err)
			}
			det := solver.NewDetector(pool, engineOpts...)
			release.push(det.Close)
			opts = append(opts, server.WithDetector(det))
		}
	}

	srv := server.New(opts...)

	if cfg.Debug() {
		log.Printf("Serving with models %v", srv.Models())
	}
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func loadClassifier(env *onnx.Environment, cfg *config.Config, modelPath, charsetPath string, opts []solver.Option) (*solver.Classifier, error) {
	kind, err := model.IdentifyFile(modelPath)
	if err != nil {
		return nil, err
	}
	cs, err := charset.Load(charsetPath)
	if err != nil {
		return nil, err
	}
	pool, err := model.NewPool(cfg.PoolSize, onnx.Factory(env, modelPath, sessionThreads))
	if err != nil {
		return nil, err
	}

	c := solver.NewClassifier(pool, cs, kind, opts...)
	if r, ok := charset.ParseRange(cfg.DefaultRange); ok {
		if err := c.SetRanges(r); err != nil {
			c.Close()
			return nil, fmt.Errorf("default range: %w", err)
		}
	}
	return c, nil
}

func printHelp() {
	fmt.Println("captcha-tools-mcp - MCP server for captcha recognition, detection and slider matching")
	fmt.Println()
	fmt.Println("Usage: captcha-tools-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v        Print version information")
	fmt.Println("  --help, -h           Print this help message")
	fmt.Println("  --env-file <path>    Load settings from this file instead of ./.env")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  CAPTCHA_MCP_LOG_LEVEL=debug        Enable debug logging")
	fmt.Println("  CAPTCHA_MCP_ORT_LIB                ONNX Runtime shared library")
	fmt.Println("  CAPTCHA_MCP_OCR_MODEL              Official model served as \"beta\"")
	fmt.Println("  CAPTCHA_MCP_OCR_CHARSET            Charset JSON for the beta model")
	fmt.Println("  CAPTCHA_MCP_OCR_OLD_MODEL          Official model served as \"old\"")
	fmt.Println("  CAPTCHA_MCP_OCR_OLD_CHARSET        Charset JSON for the old model")
	fmt.Println("  CAPTCHA_MCP_DIY_MODEL              Custom model served as \"diy\"")
	fmt.Println("  CAPTCHA_MCP_DIY_CHARSET            Charset JSON for the custom model")
	fmt.Println("  CAPTCHA_MCP_DET_MODEL              Detector model")
	fmt.Println("  CAPTCHA_MCP_POOL_SIZE=4            Runners per model")
	fmt.Println("  CAPTCHA_MCP_CALL_TIMEOUT_MS=30000  Per-inference timeout, 0 disables")
	fmt.Println("  CAPTCHA_MCP_RANGE                  Default probability range (0-7 or characters)")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
