/*
包 api 定义联邦检索服务的 HTTP 传输层类型。

# 概述

本包包含对外 REST 接口的请求与响应 DTO，把内部领域类型
(types.FederatedResponse 等) 与线格式解耦。处理器实现位于
api/handlers 子包。

# 接口一览

  - POST /api/v1/search        联邦检索
  - GET  /api/v1/nodes         列出已注册节点
  - POST /api/v1/nodes         注册节点
  - DELETE /api/v1/nodes/{id}  移除节点
  - POST /api/v1/nodes/discover 自动发现并注册候选节点
  - GET  /health               服务健康检查
*/
package api
