/*
包 cache 提供基于 Redis 的联邦检索结果缓存。

# 概述

本包封装 go-redis 客户端，把一次完整散发-汇聚查询的聚合响应
按派生键缓存一个 TTL。键由查询文本、用户上下文与排序策略共同决定，
隐私需求不同的调用方永远不会命中彼此的条目。

# 核心类型

  - Manager：结果缓存管理器，持有 Redis 客户端与连接池配置，
    提供 GetResponse/StoreResponse/Invalidate 操作与后台健康检查。
  - Config：缓存配置，包含地址、密码、连接池大小与结果 TTL。

# 缓存语义

  - 不可用响应（所有节点失败）不写入缓存，避免把故障窗口延长一个 TTL。
  - 节点注册变更后应调用 Invalidate 或 Flush 使旧结果失效。
  - 错误语义：提供 ErrCacheMiss 哨兵错误与 IsCacheMiss 判断函数。
*/
package cache
