// AngelaMos | 2026
// topic.go

package chat

type Topic struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

var topics = []Topic{
	{ID: 1, Name: "Animals", Icon: "🐼"},
	{ID: 2, Name: "Space and Planets", Icon: "🚀"},
	{ID: 3, Name: "The Human Body", Icon: "🧍"},
	{ID: 4, Name: "Dinosaurs", Icon: "🦖"},
	{ID: 5, Name: "Weather and Natural Phenomena", Icon: "🌦️"},
	{ID: 6, Name: "Sports", Icon: "⚽"},
	{ID: 7, Name: "Technology and Robots", Icon: "🤖"},
	{ID: 8, Name: "The Ocean", Icon: "🌊"},
	{ID: 9, Name: "Mythical Creatures and Magic", Icon: "🧙‍♂️"},
	{ID: 10, Name: "Everyday Why Questions", Icon: "❓"},
	{ID: 11, Name: "Math", Icon: "🧮"},
	{ID: 12, Name: "Lego", Icon: "🧱"},
}

// Topics returns a copy of the topic catalog in display order.
func Topics() []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}

func TopicByID(id int) (Topic, bool) {
	for _, t := range topics {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}
