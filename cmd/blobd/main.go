package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/chankeys/internal/flagx"
	"github.com/dmitrijs2005/chankeys/internal/server"
	"github.com/dmitrijs2005/chankeys/internal/server/config"
)

// issueFlag returns the client id given with -issue, if any.
func issueFlag() string {
	var clientID string
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&clientID, "issue", "", "print an access token for the given client id and exit")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-issue"}))
	return clientID
}

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	if clientID := issueFlag(); clientID != "" {
		tok, err := server.IssueToken(cfg, clientID)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
