// Package config 提供联邦检索层的统一配置管理。
//
// 配置来源按优先级叠加: 默认值 → YAML 文件 → 环境变量（FEDSEARCH_ 前缀）。
// 所有组件的可调参数（隐私模式、单查询节点上限、默认排序策略、健康探测间隔、
// 连续失败阈值、单节点超时、加密共享密钥等）均收敛于 Config 一处。
package config
