// Package health 实现联邦节点的后台健康监控。
//
// 监控器在独立 goroutine 中按固定间隔对所有注册节点做有界超时探测，
// 维护每节点的连续失败计数与滚动窗口可用率：连续失败达到阈值（默认 3）
// 才降级为不健康（滞回，避免单次抖动引发拉黑），一次成功即恢复。
// 调度引擎的实时调用结果通过 RecordOutcome 汇入同一状态机，使故障节点
// 早于下一轮周期探测被发现。
//
// 查询路径对健康状态只做乐观读取，可容忍一个探测间隔内的陈旧。
package health
