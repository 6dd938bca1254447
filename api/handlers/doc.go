// 包handlers实现联邦检索服务的 HTTP 处理器.
// 处理器只做线格式转换与错误映射, 领域逻辑全部在服务门面之后.
package handlers
