// UniConnect CLI - command line chat client for UniConnect
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/uniconnect/uniconnect/clients/go/uniconnect"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("UNICONNECT_URL")
	token := os.Getenv("UNICONNECT_TOKEN")

	client := uniconnect.NewClient(baseURL, token)
	ctx := context.Background()
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health(ctx)
		exitOnError(err)
		printJSON(resp)

	case "channels":
		userID := os.Getenv("UNICONNECT_USER")
		dir, err := client.LoadDirectory(ctx, userID)
		exitOnError(err)
		if dir.OrganizationName != "" {
			fmt.Printf("Organization: %s\n", dir.OrganizationName)
		}
		printChannelList("Campus", dir.Campus)
		printChannelList("Subjects", dir.Subjects)
		printChannelList("Global", dir.Global)

	case "read":
		channelID := channelArg(2)
		gate := uniconnect.NewMembershipGate(client)
		gate.Prime(ctx)
		gate.EnsureJoined(ctx, channelID, "")

		sync := uniconnect.NewSynchronizer(client, uniconnect.NewWebsocketSubscriber(client))
		defer sync.Deselect()
		exitOnError(sync.Select(ctx, channelID))
		for _, msg := range sync.Messages() {
			fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("2006-01-02 15:04:05"), msg.SenderName, msg.Content)
		}

	case "watch":
		channelID := channelArg(2)
		gate := uniconnect.NewMembershipGate(client)
		gate.Prime(ctx)
		gate.EnsureJoined(ctx, channelID, "")

		sync := uniconnect.NewSynchronizer(client, uniconnect.NewWebsocketSubscriber(client))
		defer sync.Deselect()
		exitOnError(sync.Select(ctx, channelID))

		fmt.Printf("watching channel %d (ctrl-c to stop)\n", channelID)
		last := 0
		printNew := func() {
			msgs := sync.Messages()
			for _, msg := range msgs[min(last, len(msgs)):] {
				fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("15:04:05"), msg.SenderName, msg.Content)
			}
			last = len(msgs)
		}
		printNew()

		// The synchronizer refreshes on every insert; poll its view for
		// additions rather than wiring a second callback path.
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				printNew()
			}
		}

	case "post":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: uniconnect post <channel_id> <message>")
			os.Exit(1)
		}
		channelID := channelArg(2)
		gate := uniconnect.NewMembershipGate(client)
		gate.EnsureJoined(ctx, channelID, "")

		sync := uniconnect.NewSynchronizer(client, uniconnect.NewWebsocketSubscriber(client))
		defer sync.Deselect()
		exitOnError(sync.Select(ctx, channelID))

		composer := uniconnect.NewComposer(client, sync)
		composer.SetDraft(os.Args[3])
		exitOnError(composer.Send(ctx))
		fmt.Println("Posted.")

	case "join":
		channelID := channelArg(2)
		code := ""
		if len(os.Args) > 3 {
			code = os.Args[3]
		}
		resp, err := client.JoinChannel(ctx, channelID, code)
		exitOnError(err)
		if resp.Joined {
			fmt.Printf("Joined channel %d\n", resp.ChannelID)
		} else {
			fmt.Printf("Already a member of channel %d\n", resp.ChannelID)
		}

	case "members":
		channelID := channelArg(2)
		count, err := client.MemberCount(ctx, channelID)
		exitOnError(err)
		fmt.Printf("%d members\n", count)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func channelArg(i int) int64 {
	if len(os.Args) <= i {
		fmt.Fprintln(os.Stderr, "Error: channel id required")
		os.Exit(1)
	}
	id, err := strconv.ParseInt(os.Args[i], 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid channel id %q\n", os.Args[i])
		os.Exit(1)
	}
	return id
}

func printChannelList(label string, channels []uniconnect.Channel) {
	if len(channels) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, ch := range channels {
		fmt.Printf("  %4d  %s\n", ch.ID, ch.Name)
	}
}

func usage() {
	fmt.Println(`UniConnect CLI - campus channel chat

Usage: uniconnect <command> [options]

Commands:
  channels                  List visible channels by section
  read <channel_id>         Print a channel's messages
  watch <channel_id>        Follow a channel live
  post <channel_id> <text>  Send a message
  join <channel_id> [code]  Join a channel (code for study groups)
  members <channel_id>      Show member count
  health                    Check server health

Environment:
  UNICONNECT_URL    Server URL (default: http://localhost:8080)
  UNICONNECT_TOKEN  Bearer token (required for post/join)
  UNICONNECT_USER   Profile UUID, used for campus filtering`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
