package simulated

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

const answerTemplate = `基于您查询的"%s"，以下是相关的医学信息：

这是一个模拟响应示例。在实际部署中，这里会显示基于FastGPT和医学知识库生成的专业回答。

系统会通过以下步骤提供准确信息：
1. 理解您的医学查询意图
2. 在权威医学文献中搜索相关信息
3. 基于循证医学原则生成回答
4. 提供明确的文献引用和来源

请注意：本系统提供的信息仅供参考，不能替代专业医学诊断。如有健康问题，请咨询合格的医疗专业人员。`

// Fetcher answers every query with a fixed-shape demonstration response
// after an artificial delay.
type Fetcher struct {
	delay  time.Duration
	jitter time.Duration
	clock  func() time.Time
}

func New(delay, jitter time.Duration) *Fetcher {
	if delay < 0 {
		delay = 0
	}
	if jitter < 0 {
		jitter = 0
	}
	return &Fetcher{delay: delay, jitter: jitter, clock: time.Now}
}

func (f *Fetcher) FetchAnswer(ctx context.Context, sanitizedQuery string) (*domain.QueryResponse, error) {
	start := f.clock()

	wait := f.delay
	if f.jitter > 0 {
		wait += rand.N(f.jitter)
	}
	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("simulated answer: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return &domain.QueryResponse{
		Answer: fmt.Sprintf(answerTemplate, sanitizedQuery),
		References: []domain.Reference{
			{ID: 1, Title: "临床医学指南 - 相关章节", Source: "中华医学会", URL: "#", Confidence: 0.95},
			{ID: 2, Title: "循证医学文献综述", Source: "医学期刊数据库", URL: "#", Confidence: 0.88},
		},
		QueryTime:      f.clock().UTC(),
		ProcessingTime: f.clock().Sub(start),
	}, nil
}
