package sandbox

import (
	"strings"

	"github.com/elysian-app/elysian/internal/model"
)

// keyedQuestion is a comprehension question with its grading key. The
// key never leaves the server; public renders drop it.
type keyedQuestion struct {
	Prompt  string
	Kind    model.QuestionKind
	Options []string
	Answer  string
}

func (q keyedQuestion) public() model.Question {
	return model.Question{Prompt: q.Prompt, Kind: q.Kind, Options: q.Options}
}

func publicQuestions(qs []keyedQuestion) []model.Question {
	out := make([]model.Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.public())
	}
	return out
}

// challenge is one listening exercise: a transcript standing in for
// audio plus its comprehension questions.
type challenge struct {
	Title       string
	Description string
	Transcript  string
	Questions   []keyedQuestion
	Duration    int // seconds
}

// article is one reading exercise.
type article struct {
	Title      string
	Content    string
	Topic      string
	WordCount  int
	Minutes    int
	Vocabulary []string
	Questions  []keyedQuestion
}

// lessonExercise is one micro-exercise with its key and explanation.
type lessonExercise struct {
	Kind        string
	Question    string
	Answer      string
	Explanation string
	SkillTarget string
	Options     []string
}

var speakWords = map[model.Level][]string{
	model.LevelA1: {"hello", "goodbye", "please", "thank you", "sorry", "water", "food"},
	model.LevelA2: {"beautiful", "interesting", "difficult", "important", "necessary"},
	model.LevelB1: {"opportunity", "experience", "development", "environment", "technology"},
	model.LevelB2: {"sophisticated", "controversial", "phenomenon", "perspective", "initiative"},
	model.LevelC1: {"entrepreneurial", "philosophical", "unprecedented", "sustainability", "infrastructure"},
	model.LevelC2: {"idiosyncratic", "quintessential", "serendipitous", "paradigmatic", "epistemological"},
}

var speakSentences = map[model.Level][]string{
	model.LevelA1: {
		"My name is John and I'm from New York.",
		"I like to eat pizza and pasta for dinner.",
		"She goes to school by bus every morning.",
	},
	model.LevelA2: {
		"I've been learning English for about two years now.",
		"Could you tell me how to get to the nearest subway station?",
		"I'm planning to visit my grandparents next weekend.",
	},
	model.LevelB1: {
		"If I had known about the traffic, I would have left home earlier.",
		"The documentary we watched last night was both informative and entertaining.",
		"Despite the challenges, they managed to complete the project on time.",
	},
	model.LevelB2: {
		"The government has implemented several measures to address the economic crisis.",
		"Research indicates that regular exercise can significantly improve mental health.",
		"The company's innovative approach has revolutionized the industry.",
	},
	model.LevelC1: {
		"The intricate relationship between climate change and biodiversity loss requires comprehensive solutions.",
		"The professor elucidated the complex theoretical framework underpinning modern linguistics.",
		"The novel's protagonist undergoes a profound transformation, challenging readers' preconceptions.",
	},
	model.LevelC2: {
		"The quintessential dilemma facing policymakers is reconciling economic growth with environmental sustainability.",
		"The philosopher's treatise on epistemology has been lauded for its nuanced approach to knowledge acquisition.",
		"The symphony's final movement juxtaposes cacophonous dissonance with moments of transcendent harmony.",
	},
}

var speakPassages = map[model.Level]string{
	model.LevelA1: "My daily routine is simple. I wake up at seven o'clock. I have breakfast at seven thirty. I go to work at eight thirty. I have lunch at twelve o'clock. I finish work at five o'clock. I have dinner at seven o'clock. I go to bed at eleven o'clock.",
	model.LevelA2: "Last weekend, I visited my friend in the countryside. We went for a long walk in the forest. The weather was beautiful and sunny. We saw many animals and birds. Later, we had a picnic by the lake. It was a very relaxing day.",
	model.LevelB1: "Technology has changed the way we communicate with each other. In the past, people wrote letters or made phone calls. Now, we use social media, email, and video calls. These new technologies make it easier to stay in touch with friends and family who live far away.",
	model.LevelB2: "Climate change is one of the biggest challenges facing our planet today. Rising temperatures are causing extreme weather events, melting ice caps, and rising sea levels. Governments around the world are working to reduce carbon emissions and develop renewable energy sources.",
	model.LevelC1: "The relationship between technology and privacy is increasingly complex in the digital age. As we share more personal information online, questions arise about who owns this data and how it should be protected. Balancing innovation with individual rights remains a significant challenge for policymakers.",
	model.LevelC2: "The philosophical implications of artificial intelligence extend beyond practical applications to fundamental questions about consciousness and what it means to be human. As machines become more sophisticated in mimicking human cognition, the boundaries between natural and artificial intelligence become increasingly blurred, challenging our traditional understanding of cognition itself.",
}

// speakWeights orders word/sentence/shadowing odds per band: beginners
// get mostly words, intermediates mostly sentences, advanced mostly
// shadowing.
func speakWeights(lvl model.Level) [3]float64 {
	switch lvl {
	case model.LevelA1, model.LevelA2:
		return [3]float64{0.6, 0.3, 0.1}
	case model.LevelB1, model.LevelB2:
		return [3]float64{0.3, 0.5, 0.2}
	default:
		return [3]float64{0.1, 0.4, 0.5}
	}
}

func difficultyOf(lvl model.Level) int {
	switch lvl {
	case model.LevelA1, model.LevelA2:
		return 1
	case model.LevelB1, model.LevelB2:
		return 2
	default:
		return 3
	}
}

// normalizeLevel falls back to B1 for levels without content, the same
// middle-ground default the content tables are built around.
func normalizeLevel(lvl model.Level) model.Level {
	if _, ok := speakWords[lvl]; ok {
		return lvl
	}
	return model.LevelB1
}

type listenBand struct {
	Topics      []string
	MaxDuration int
	Complexity  string
}

var listenBands = map[model.Level]listenBand{
	model.LevelA1: {Topics: []string{"daily_routine", "family", "food", "hobbies"}, MaxDuration: 90, Complexity: "simple"},
	model.LevelA2: {Topics: []string{"work", "travel", "health", "education"}, MaxDuration: 120, Complexity: "basic"},
	model.LevelB1: {Topics: []string{"technology", "environment", "culture", "business"}, MaxDuration: 180, Complexity: "intermediate"},
	model.LevelB2: {Topics: []string{"science", "politics", "psychology", "economics"}, MaxDuration: 240, Complexity: "advanced"},
	model.LevelC1: {Topics: []string{"philosophy", "literature", "research", "innovation"}, MaxDuration: 300, Complexity: "complex"},
	model.LevelC2: {Topics: []string{"academia", "specialized_fields", "abstract_concepts"}, MaxDuration: 360, Complexity: "expert"},
}

var cannedChallenges = map[string]challenge{
	"A1_daily_routine": {
		Title:       "Morning Routine",
		Description: "Listen to Sarah describe her typical morning",
		Transcript:  "Hi, my name is Sarah. Every morning I wake up at seven o'clock. First, I brush my teeth and wash my face. Then I have breakfast. I usually eat cereal with milk and drink orange juice. After breakfast, I get dressed and go to work. I take the bus because I don't have a car. The journey takes about twenty minutes.",
		Questions: []keyedQuestion{
			{
				Prompt:  "What time does Sarah wake up?",
				Kind:    model.QuestionMultipleChoice,
				Options: []string{"6 o'clock", "7 o'clock", "8 o'clock", "9 o'clock"},
				Answer:  "7 o'clock",
			},
			{
				Prompt:  "What does Sarah eat for breakfast?",
				Kind:    model.QuestionMultipleChoice,
				Options: []string{"Toast and coffee", "Cereal with milk", "Eggs and bacon", "Fruit and yogurt"},
				Answer:  "Cereal with milk",
			},
			{
				Prompt:  "How does Sarah go to work?",
				Kind:    model.QuestionMultipleChoice,
				Options: []string{"By car", "By bus", "By train", "She walks"},
				Answer:  "By bus",
			},
		},
		Duration: 45,
	},
	"B1_technology": {
		Title:       "The Impact of Social Media",
		Description: "A discussion about how social media affects our daily lives",
		Transcript:  "Social media has completely changed the way we communicate with each other. Twenty years ago, if you wanted to stay in touch with friends, you had to call them or send letters. Now, we can instantly share photos, videos, and thoughts with hundreds of people at once. While this connectivity has many benefits, such as keeping families together across distances and allowing businesses to reach customers more easily, there are also some negative effects. Many people spend too much time scrolling through their feeds instead of having real conversations. Studies show that excessive social media use can lead to feelings of anxiety and depression, especially among young people who compare themselves to others online.",
		Questions: []keyedQuestion{
			{
				Prompt:  "According to the passage, how did people communicate 20 years ago?",
				Kind:    model.QuestionMultipleChoice,
				Options: []string{"Through social media", "By calling or sending letters", "Only through email", "They didn't communicate much"},
				Answer:  "By calling or sending letters",
			},
			{
				Prompt:  "What negative effect of social media is mentioned?",
				Kind:    model.QuestionMultipleChoice,
				Options: []string{"It's too expensive", "It can cause anxiety and depression", "It's too complicated", "It doesn't work well"},
				Answer:  "It can cause anxiety and depression",
			},
			{
				Prompt: "Why might young people be particularly affected by social media?",
				Kind:   model.QuestionOpenEnded,
				Answer: "Because they compare themselves to others online",
			},
		},
		Duration: 120,
	},
}

// fallbackChallenge covers band/topic pairs without canned content.
func fallbackChallenge(topic string, band listenBand) challenge {
	name := strings.ReplaceAll(topic, "_", " ")
	return challenge{
		Title:       "Listening Challenge: " + titleCase(name),
		Description: "A " + band.Complexity + " listening exercise about " + name,
		Transcript:  "This is a sample listening exercise. In a real implementation, this would contain level-appropriate content about the selected topic.",
		Questions: []keyedQuestion{
			{
				Prompt:  "What is the main topic of this audio?",
				Kind:    model.QuestionMultipleChoice,
				Options: []string{"Education", "Technology", "Travel", "Health"},
				Answer:  "Technology",
			},
		},
		Duration: band.MaxDuration / 2,
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var libraryArticles = []article{
	{
		Title:      "The Benefits of Reading",
		Content:    "Reading is one of the most important skills we can develop. When we read regularly, we improve our vocabulary, learn new ideas, and exercise our brain. Scientists have discovered that reading can help reduce stress and improve memory. People who read books are often better at solving problems and thinking creatively. Reading also helps us understand different cultures and perspectives. Whether you prefer fiction or non-fiction, newspapers or magazines, the important thing is to read something every day. Even reading for just fifteen minutes can make a big difference in your life.",
		Topic:      "education",
		WordCount:  120,
		Minutes:    2,
		Vocabulary: []string{"vocabulary", "perspectives", "creativity", "reduce stress"},
		Questions: []keyedQuestion{
			{
				Prompt: "According to the text, what are two benefits of reading?",
				Kind:   model.QuestionOpenEnded,
				Answer: "Improves vocabulary and reduces stress (among others)",
			},
			{
				Prompt:  "How long should you read each day according to the article?",
				Kind:    model.QuestionMultipleChoice,
				Options: []string{"5 minutes", "15 minutes", "30 minutes", "1 hour"},
				Answer:  "15 minutes",
			},
		},
	},
	{
		Title:      "Climate Change Solutions",
		Content:    "Climate change is one of the biggest challenges facing humanity today. Rising global temperatures are causing more extreme weather events, melting ice caps, and rising sea levels. However, there are many solutions that individuals and governments can implement. Renewable energy sources like solar and wind power are becoming more affordable and efficient. Electric vehicles are replacing gasoline-powered cars in many countries. Cities are creating more green spaces and encouraging public transportation. Individuals can help by reducing energy consumption, eating less meat, and recycling more. While the problem is complex, collective action can make a significant difference in slowing climate change and protecting our planet for future generations.",
		Topic:      "environment",
		WordCount:  150,
		Minutes:    3,
		Vocabulary: []string{"renewable energy", "collective action", "consumption", "implement"},
		Questions: []keyedQuestion{
			{
				Prompt: "What are three solutions to climate change mentioned in the text?",
				Kind:   model.QuestionOpenEnded,
				Answer: "Renewable energy, electric vehicles, green spaces (among others)",
			},
			{
				Prompt:  "What can individuals do to help with climate change?",
				Kind:    model.QuestionMultipleChoice,
				Options: []string{"Only use solar power", "Reduce energy and eat less meat", "Move to another country", "Do nothing"},
				Answer:  "Reduce energy and eat less meat",
			},
		},
	},
	{
		Title:      "The Future of Work",
		Content:    "Technology is rapidly changing the nature of work around the world. Artificial intelligence and automation are replacing many traditional jobs, but they are also creating new opportunities. Remote work has become much more common, especially after the global pandemic. Many companies now allow employees to work from home several days per week. This flexibility can improve work-life balance and reduce commuting time. However, it also presents challenges such as maintaining team communication and company culture. Workers need to continuously develop new skills to stay relevant in the changing job market. Critical thinking, creativity, and emotional intelligence are becoming more valuable than ever. The key to success in the future workplace will be adaptability and lifelong learning.",
		Topic:      "technology",
		WordCount:  180,
		Minutes:    4,
		Vocabulary: []string{"automation", "flexibility", "adaptability", "emotional intelligence"},
		Questions: []keyedQuestion{
			{
				Prompt: "What skills are becoming more valuable according to the text?",
				Kind:   model.QuestionOpenEnded,
				Answer: "Critical thinking, creativity, and emotional intelligence",
			},
			{
				Prompt:  "What is the key to success in the future workplace?",
				Kind:    model.QuestionMultipleChoice,
				Options: []string{"Working from home", "Using AI", "Adaptability and lifelong learning", "Avoiding technology"},
				Answer:  "Adaptability and lifelong learning",
			},
		},
	},
}

// featureArticle backs direct article fetches for ids the library has
// not issued, so deep links into the reader always resolve.
var featureArticle = article{
	Title:      "The Power of Artificial Intelligence",
	Content:    "Artificial Intelligence (AI) is transforming every aspect of our lives in ways we never imagined possible. From the moment we wake up and check our smartphones to the recommendations we receive on streaming platforms, AI algorithms are working behind the scenes to enhance our daily experiences. In healthcare, AI is revolutionizing diagnosis and treatment by analyzing medical images with unprecedented accuracy and speed. Doctors can now detect diseases like cancer much earlier than ever before, potentially saving millions of lives. In transportation, self-driving cars are being tested on roads around the world, promising to reduce accidents and traffic congestion. The financial industry uses AI to detect fraud, assess credit risks, and provide personalized investment advice. However, this rapid advancement also raises important questions about privacy, employment, and the ethical use of technology. As AI becomes more sophisticated, society must carefully balance innovation with responsibility to ensure that these powerful tools benefit everyone.",
	Topic:      "technology",
	WordCount:  195,
	Minutes:    4,
	Vocabulary: []string{"unprecedented", "revolutionizing", "sophisticated", "algorithms"},
	Questions: []keyedQuestion{
		{
			Prompt: "In which industries is AI being used according to the text?",
			Kind:   model.QuestionOpenEnded,
			Answer: "Healthcare, transportation, and finance",
		},
		{
			Prompt:  "What is one concern about AI mentioned in the text?",
			Kind:    model.QuestionMultipleChoice,
			Options: []string{"It's too expensive", "Privacy and employment issues", "It doesn't work well", "It's too slow"},
			Answer:  "Privacy and employment issues",
		},
		{
			Prompt:  "How is AI helping in healthcare?",
			Kind:    model.QuestionMultipleChoice,
			Options: []string{"By replacing all doctors", "By analyzing medical images accurately", "By reducing hospital costs", "By eliminating all diseases"},
			Answer:  "By analyzing medical images accurately",
		},
	},
}

// sampleLesson is the generated daily lesson. Five micro-exercises
// across skills, each with its key and explanation.
var sampleLesson = []lessonExercise{
	{
		Kind:        "fill-in-the-blank",
		Question:    "I _____ to the store yesterday.",
		Answer:      "went",
		Explanation: "We use 'went' (past tense of 'go') to describe completed actions in the past.",
		SkillTarget: "grammar",
	},
	{
		Kind:        "sentence-scramble",
		Question:    "Reorder: 'always / coffee / morning / I / drink / in / the'",
		Answer:      "I always drink coffee in the morning",
		Explanation: "This follows typical English word order: Subject + Adverb + Verb + Object + Prepositional phrase.",
		SkillTarget: "grammar",
	},
	{
		Kind:        "error-spotting",
		Question:    "Find the error: 'She don't like vegetables very much.'",
		Answer:      "She doesn't like vegetables very much.",
		Explanation: "With third-person singular subjects (she, he, it), we use 'doesn't' not 'don't'.",
		SkillTarget: "grammar",
	},
	{
		Kind:        "multiple-choice",
		Question:    "Choose the best word: 'The weather is very _____ today.'",
		Answer:      "nice",
		Options:     []string{"nice", "nicely", "good", "well"},
		Explanation: "'Nice' is the correct adjective to describe weather.",
		SkillTarget: "vocabulary",
	},
	{
		Kind:        "image-description",
		Question:    "Describe this scenario: A busy coffee shop with people working on laptops.",
		Answer:      "Sample: People are sitting at tables, typing on their laptops while drinking coffee.",
		Explanation: "Good descriptions include specific details and present continuous tense for ongoing actions.",
		SkillTarget: "writing_accuracy",
	},
}
