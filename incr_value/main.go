package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/pflag"

	"github.com/kvstack/tablestore/client"
)

var useTransaction = pflag.BoolP("transaction", "t", false, "execute the increment as a transaction")

func main() {
	pflag.Parse()
	args := pflag.Args()
	if len(args) != 5 {
		fmt.Fprintln(os.Stderr, "Usage: incr_value [-t] <hostname> <port> <username> <table> <key>")
		os.Exit(1)
	}
	if err := run(args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	hostname, port, username, table, key := args[0], args[1], args[2], args[3], args[4]

	c, err := client.Dial(net.JoinHostPort(hostname, port))
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Login(username); err != nil {
		return err
	}
	if _, err := c.IncrValue(table, key, *useTransaction); err != nil {
		return err
	}
	return c.Bye()
}
