// Command stepmigrate applies numbered directories of SQL migration files.
package main

import "github.com/aqasim81/stepmigrate/internal/cli"

func main() {
	cli.Execute()
}
