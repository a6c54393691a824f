package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/pflag"

	"github.com/kvstack/tablestore/client"
)

func main() {
	pflag.Parse()
	args := pflag.Args()
	if len(args) != 5 {
		fmt.Fprintln(os.Stderr, "Usage: get_value <hostname> <port> <username> <table> <key>")
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
	value, err := c.GetValue(table, key)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return c.Bye()
}
