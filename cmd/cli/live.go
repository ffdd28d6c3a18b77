package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newListenCmd() *cobra.Command {
	var addr string
	var pretty bool
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Follow the live search feed over TCP, reconnecting on failure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for {
				if err := runTCP(cmd.OutOrStdout(), addr, pretty); err != nil {
					slog.Warn("feed disconnected", "addr", addr, "err", err)
				}
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultTCPAddr, "TCP feed address")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "pretty print JSON events")
	return cmd
}

func runTCP(w io.Writer, addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	slog.Info("feed connected", "addr", addr)
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	for sc.Scan() {
		printEvent(w, sc.Bytes(), pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func newSubscribeCmd(g *globalFlags) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Follow the live search feed over a websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL, err := websocketURL(g.baseURL, "/ws", url.Values{})
			if err != nil {
				return err
			}
			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL, nil)
			if err != nil {
				return err
			}
			defer conn.Close()
			slog.Info("feed connected", "url", wsURL)

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return err
				}
				printEvent(cmd.OutOrStdout(), msg, pretty)
			}
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", true, "pretty print JSON events")
	return cmd
}

// printEvent prints a feed line, indenting it when it is JSON.
func printEvent(w io.Writer, line []byte, pretty bool) {
	if !pretty {
		fmt.Fprintln(w, string(line))
		return
	}
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		fmt.Fprintln(w, string(line))
		return
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Fprintln(w, string(b))
}
