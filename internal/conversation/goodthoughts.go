package conversation

import (
	"math/rand/v2"
	"net/http"

	"github.com/wellbot/wellbot-api/internal/http/respond"
)

// GoodThought is a short encouraging message shown on the home screen.
type GoodThought struct {
	ID       int    `json:"id"`
	JokeText string `json:"joketext"`
}

var defaultGoodThoughts = []GoodThought{
	{ID: 1, JokeText: "Mỗi ngày trôi qua là một cơ hội mới để bạn bắt đầu lại."},
	{ID: 2, JokeText: "Bạn không cần phải hoàn hảo, chỉ cần cố gắng là đủ."},
	{ID: 3, JokeText: "Hãy cho bản thân thời gian, mọi điều tốt đẹp đều cần chờ đợi."},
	{ID: 4, JokeText: "Dù hôm nay có khó khăn, bạn vẫn đang tiến về phía trước."},
}

// GoodThoughts serves GET /goodthoughts.
type GoodThoughts struct {
	thoughts []GoodThought
	pick     func(n int) int
}

func NewGoodThoughts() *GoodThoughts {
	return &GoodThoughts{thoughts: defaultGoodThoughts, pick: rand.IntN}
}

// Random writes one thought chosen uniformly at random.
func (g *GoodThoughts) Random(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, g.thoughts[g.pick(len(g.thoughts))])
}
