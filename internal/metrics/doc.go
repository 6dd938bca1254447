/*
包 metrics 提供基于 Prometheus 的联邦检索指标采集能力，覆盖
HTTP、联邦查询、节点调度、健康探测与缓存五大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 主要能力

  - HTTP 指标：请求总数与耗时，按 method/path/status 分组，
    状态码归类为 2xx/3xx/4xx/5xx。
  - 联邦查询指标：查询总数、端到端耗时、最终文档数与去重数，
    按 strategy/status 分组。
  - 节点调度指标：调度总数与单节点耗时，按 node_id/outcome 分组。
  - 健康监控指标：探测计数与当前可用节点数 Gauge。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。
*/
package metrics
