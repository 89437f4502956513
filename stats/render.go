package stats

import (
	"encoding/json"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/packlab/errs"
	"gopkg.in/yaml.v3"
)

// ReportRender 定義輸出行為
type ReportRender interface {
	Write(w io.Writer, r *Report) error
}

// Json渲染
type JsonReportRender struct{}

func (jr *JsonReportRender) Write(w io.Writer, r *Report) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLReportRender struct{}

func (yr *YAMLReportRender) Write(w io.Writer, r *Report) error {
	// 最內層的一維陣列輸出成 flow style：[..., ...]
	return forceReadableList(w, r)
}

type EstimatorRender interface {
	Write(w io.Writer, e *EstimatorPlayers) error
}

// Json渲染
type JsonEstimatorRender struct{}

func (jr *JsonEstimatorRender) Write(w io.Writer, e *EstimatorPlayers) error {
	return json.NewEncoder(w).Encode(e)
}

// YAML渲染
type YAMLEstimatorRender struct{}

func (yr *YAMLEstimatorRender) Write(w io.Writer, e *EstimatorPlayers) error {
	return forceReadableList(w, e)
}

// RenderByName 依名稱取得報表渲染器（json / yaml）。
func RenderByName(name string) (ReportRender, error) {
	switch name {
	case "json":
		return &JsonReportRender{}, nil
	case "yaml", "yml":
		return &YAMLReportRender{}, nil
	default:
		return nil, errs.Configf("unknown report format: %q", name)
	}
}

// WriteCompressed 以 zstd 壓縮後寫出報表，長時間模擬的報表歸檔用。
func (r *Report) WriteCompressed(w io.Writer, rep ReportRender) error {
	r.Done()
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errs.Wrap(err, "create zstd writer")
	}
	if err := rep.Write(zw, r); err != nil {
		_ = zw.Close()
		return errs.Wrap(err, "render report")
	}
	if err := zw.Close(); err != nil {
		return errs.Wrap(err, "flush zstd writer")
	}
	return nil
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	// 自頂向下調整所有 sequence node 的 style：
	// - 內部沒有子 sequence => 最內層一維，用 flow style: [...]
	// - 內部有子 sequence   => 外層維度，保持 block
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
	case yaml.SequenceNode:
		hasChildSeq := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				hasChildSeq = true
				break
			}
		}
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		if !hasChildSeq {
			n.Style = yaml.FlowStyle
		}
	}
}
