package command

import (
	"fmt"

	"github.com/amankumarsingh77/go-webtoon-crawler/db/repository"
	"github.com/spf13/cobra"
)

var findFile string

var findCmd = &cobra.Command{
	Use:   "find <title>",
	Short: "Look up a title in an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := findFile
		if file == "" {
			file = repository.NewJSONRepo(cfg.OutputDir, nil).Path(cfg.OutputFile())
		}

		webtoons, err := repository.LoadJSON(file)
		if err != nil {
			return err
		}

		title := args[0]
		index := repository.FindTitleIndex(webtoons, title)
		if index == -1 {
			return fmt.Errorf("title %q not found in %s", title, file)
		}

		w := webtoons[index]
		fmt.Fprintf(cmd.OutOrStdout(), "Title '%s' found at index: %d (id %d, day %q, %s)\n", title, index, w.ID, w.Day, w.URL)
		return nil
	},
}

func init() {
	findCmd.Flags().StringVarP(&findFile, "file", "f", "", "exported JSON file (default <output-dir>/<platform>_webtoon_list.json)")
	rootCmd.AddCommand(findCmd)
}
