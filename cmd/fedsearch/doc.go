/*
Package main 提供 FedSearch 服务端程序入口。

# 概述

cmd/fedsearch 是联邦检索编排服务的可执行入口，提供 HTTP API 服务、
健康检查和版本查询等子命令。程序支持 YAML 配置文件加载、
结构化日志（zap）与 Prometheus 指标采集。

# 核心类型

  - Server           — 主服务器，管理 HTTP、Metrics 双端口及优雅关闭
  - Middleware        — HTTP 中间件函数签名 func(http.Handler) http.Handler
  - responseWriter    — 包装 http.ResponseWriter 以捕获状态码

# 主要能力

  - 子命令：serve（启动服务）、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    MetricsMiddleware、RateLimiter（基于 IP）、JWTAuth（HS256 Bearer）
  - API 路由：/api/v1/search、/api/v1/nodes、/api/v1/nodes/{id}、
    /api/v1/nodes/discover、/health
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 关闭 HTTP → 关闭 Metrics → 停止健康监控
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
