package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/wayfare/internal/client/config"
	"github.com/dmitrijs2005/wayfare/internal/client/transport"
	"github.com/dmitrijs2005/wayfare/internal/client/uploader"
	"github.com/dmitrijs2005/wayfare/internal/logging"
)

// usage: wayfare-client [-a url] [-t token] [-category name] <entity-id> <file>...
func main() {

	cfg := config.LoadConfig()

	fs := flag.NewFlagSet("wayfare-client", flag.ExitOnError)
	// flags already consumed by the config loader are re-declared so the
	// flag set accepts them and leaves the positional arguments intact
	var ignored string
	fs.StringVar(&ignored, "a", "", "base URL of the backend server")
	fs.StringVar(&ignored, "t", "", "bearer token")
	fs.StringVar(&ignored, "w", "", "request timeout (in seconds)")
	fs.StringVar(&ignored, "c", "", "path to config file")
	fs.StringVar(&ignored, "config", "", "path to config file")
	category := fs.String("category", "", "media category for all uploads")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	args := fs.Args()
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [-a url] [-t token] [-category name] <entity-id> <file>...\n", os.Args[0])
		os.Exit(2)
	}
	entityID := args[0]
	paths := args[1:]

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	client := transport.NewClient(cfg.ServerEndpointAddr, cfg.Token, cfg.RequestTimeout)

	var wg sync.WaitGroup
	wg.Add(len(paths))

	queue := uploader.NewQueue(client, logger, func(taskID string, r uploader.Result) {
		defer wg.Done()
		switch {
		case r.Err == nil:
			fmt.Printf("uploaded %s (%d bytes) -> %s\n", r.Record.OriginalName, r.Record.SizeBytes, r.Record.URL)
		case r.Aborted():
			fmt.Println("upload canceled")
		default:
			fmt.Fprintf(os.Stderr, "upload failed: %v\n", r.Err)
		}
	})

	files := make([]uploader.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Fatalf("read %s: %v", p, err)
		}
		files = append(files, uploader.File{
			Name: filepath.Base(p),
			Data: data,
			Dest: uploader.Destination{EntityID: entityID, Category: *category},
		})
	}

	queue.Enqueue(files...)
	queue.ProcessNext()

	wg.Wait()
}
