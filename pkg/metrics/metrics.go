// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// gardenNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	gardenNamespace = "garden"

	delegateSubsystem = "delegate"

	// 以下为当前使用的通用标签名。
	statusLabelName  = "status"
	formatLabelName  = "format"
	bindingLabelName = "binding"

	StatusSuccess = "success"
	StatusFail    = "fail"

	FormatCurrent = "current"
	FormatLegacy  = "legacy"

	BindingDescriptor = "descriptor"
	BindingName       = "name"
)

var (
	// sizeBuckets 为记录大小的桶划分，单位为字节。
	sizeBuckets = []float64{64, 256, 1024, 4096, 16384, 65536, 262144, 1048576}

	// EncodeTotal 统计委托编码次数。
	EncodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: gardenNamespace,
			Subsystem: delegateSubsystem,
			Name:      "encode_total",
			Help:      "委托链节点编码次数",
		}, []string{statusLabelName})

	// DecodeTotal 统计记录解码次数，按格式与结果区分。
	DecodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: gardenNamespace,
			Subsystem: delegateSubsystem,
			Name:      "decode_total",
			Help:      "委托记录解码次数",
		}, []string{formatLabelName, statusLabelName})

	// ReconstructTotal 统计委托重建次数，按绑定方式与结果区分。
	ReconstructTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: gardenNamespace,
			Subsystem: delegateSubsystem,
			Name:      "reconstruct_total",
			Help:      "委托重建次数",
		}, []string{bindingLabelName, statusLabelName})

	// ChainLength 统计解码得到的委托链长度分布。
	ChainLength = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: gardenNamespace,
			Subsystem: delegateSubsystem,
			Name:      "chain_length",
			Help:      "多播委托链长度分布",
			Buckets:   prometheus.LinearBuckets(1, 1, 16),
		})

	// RecordBytes 统计记录编码后的字节大小分布。
	RecordBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: gardenNamespace,
			Subsystem: delegateSubsystem,
			Name:      "record_bytes",
			Help:      "记录编码后的大小，单位为字节",
			Buckets:   sizeBuckets,
		})

	registerOnce sync.Once
)

// Register 将所有指标注册到给定的 Prometheus Registry 中。
func Register(registry prometheus.Registerer) {
	registerOnce.Do(func() {
		registry.MustRegister(EncodeTotal)
		registry.MustRegister(DecodeTotal)
		registry.MustRegister(ReconstructTotal)
		registry.MustRegister(ChainLength)
		registry.MustRegister(RecordBytes)
	})
}
