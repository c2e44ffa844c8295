package main

import (
	"context"

	"github.com/amankumarsingh77/go-webtoon-crawler/cmd/webtoon/command"
)

func main() {
	command.ExecuteContext(context.Background())
}
