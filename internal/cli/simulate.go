package cli

import (
	"github.com/spf13/cobra"
)

var simulateFail []string

var simulateCmd = &cobra.Command{
	Use:     "simulate",
	Short:   "模拟部分数据源故障并展示降级结果",
	Example: "  trumpwatch simulate --fail gas,bitcoin",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Simulate(cmd.Context(), simulateFail)
	},
}

func init() {
	simulateCmd.Flags().StringSliceVar(&simulateFail, "fail", nil, "强制失败的数据源, 例如 gas,bitcoin,quotes")
}
