package main

import "github.com/dbsmedya/db2xlsx/cmd/db2xlsx/cmd"

func main() {
	cmd.Execute()
}
