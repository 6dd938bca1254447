/*
Package types 提供联邦检索层的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 registry、health、selector、
privacy、federation、aggregate 等上层模块提供统一的类型契约。所有跨包共享的
结构体、枚举和错误码均定义于此，以避免循环依赖。

# 核心类型

  - Node              — 联邦数据节点描述符（域、能力、隐私级别、可用性）
  - PrivacyTier       — 有序隐私级别（public < confidential < restricted）
  - HealthStatus      — 节点健康快照（连续失败计数、滚动可用率）
  - QueryAnalysis     — 查询分析结果（域、隐私需求、能力需求、排序策略）
  - Document          — 跨节点文档（内容 + 元数据 + 来源与评分）
  - NodeResult        — 单节点检索结果（节点间成功/失败互相隔离）
  - AggregatedResult  — 去重排序后的最终结果集
  - Error / ErrorCode — 统一结构化错误

# 不变量

  - 节点隐私级别严于查询隐私需求时永不被选中（单调序）。
  - NodeResult 创建后不可变；AggregatedResult 中不存在内容指纹相同的两篇文档。
*/
package types
