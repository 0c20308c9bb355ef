package cmd

import (
	"fmt"
	"reflect"

	"github.com/wangkanai/foundation/core/entity"
	"github.com/wangkanai/foundation/core/valueobject"

	"github.com/spf13/cobra"
)

// Demo types exercised by the stats warm-up run.
type demoMoney struct {
	Amount   int64
	Currency string
}

type demoAddress struct {
	Street string
	City   string
}

type demoTagged struct {
	Labels []string
}

type demoOrder struct {
	entity.Entity[int64]
	Total demoMoney
}

// statsCmd runs a small comparison workload and prints the resulting
// cache counters. Useful for eyeballing the optimized/disabled split and
// the resolver hit ratio without standing up the server.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print equality and identity cache statistics",
	Long: `Runs a short warm-up workload through the value-object equality engine
and the type-resolution cache, then prints both caches' counters.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()

		for i := 0; i < 1000; i++ {
			valueobject.Equals(
				demoMoney{Amount: int64(i), Currency: "USD"},
				demoMoney{Amount: int64(i), Currency: "USD"})
			valueobject.Equals(
				demoAddress{Street: "1 Main St", City: "Springfield"},
				demoAddress{Street: "1 Main St", City: "Portland"})
			valueobject.Equals(
				demoTagged{Labels: []string{"a"}},
				demoTagged{Labels: []string{"a"}})
			valueobject.HashOf(demoMoney{Amount: int64(i), Currency: "USD"})
			entity.RealTypeOf(reflect.TypeOf(demoOrder{}))
		}

		vo := valueobject.Stats()
		fmt.Fprintln(out, "value objects:")
		fmt.Fprintf(out, "  optimized types: %d\n", vo.OptimizedTypes)
		fmt.Fprintf(out, "  disabled types:  %d\n", vo.DisabledTypes)
		fmt.Fprintf(out, "  total types:     %d\n", vo.TotalTypes)

		tr := entity.CacheStats()
		fmt.Fprintln(out, "type resolution:")
		fmt.Fprintf(out, "  hits:      %d\n", tr.Hits)
		fmt.Fprintf(out, "  misses:    %d\n", tr.Misses)
		fmt.Fprintf(out, "  hit ratio: %.4f\n", tr.HitRatio)
		fmt.Fprintf(out, "  size:      %d/%d\n", tr.Size, tr.Capacity)
	},
}

func init() {
	RootCmd.AddCommand(statsCmd)
}
