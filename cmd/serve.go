package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tristanduncombe/DECO3500/internal/config"
	"github.com/tristanduncombe/DECO3500/internal/detector"
	"github.com/tristanduncombe/DECO3500/internal/images"
	"github.com/tristanduncombe/DECO3500/internal/lock"
	"github.com/tristanduncombe/DECO3500/internal/server"
	"github.com/tristanduncombe/DECO3500/internal/store"
	"github.com/tristanduncombe/DECO3500/internal/vault"
)

var serveMock bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Deco backend server",
	Long: `Start the HTTP backend: the inventory API, the unlock protocol, and
the lock state endpoint the actuator polls.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveMock, "mock", false, "Use the mock landmark detector (no Python required)")
}

// newDetector picks the landmark source: MediaPipe when the Python
// sidecar is available, the mock otherwise so the API stays testable on
// machines without it.
func newDetector(cfg *config.Config) detector.Detector {
	if serveMock || cfg.Detector.Mock {
		log.Println("Using mock landmark detector")
		return detector.NewMockDetector()
	}

	mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), cfg.Detector.ScriptPath, cfg.Detector.PythonBin)
	if err != nil {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		return detector.NewMockDetector()
	}
	log.Println("Using MediaPipe landmark detection")
	return mp
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	img, err := images.New(cfg.Database.ImagesDir)
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}

	det := newDetector(cfg)
	defer det.Close()

	machine := lock.New()

	v := vault.New(det, st, img, machine, vault.Config{
		Threshold:  cfg.Vault.MatchThreshold,
		AddWindow:  cfg.Vault.AddWindow,
		TakeWindow: cfg.Vault.TakeWindow,
	})

	srv := server.New(server.Config{
		Addr:        cfg.Server.Addr,
		CORSOrigins: cfg.Server.CORSOrigins,
		Vault:       v,
		Lock:        machine,
		Images:      img,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	return srv.Start()
}
