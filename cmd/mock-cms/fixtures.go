package main

import "time"

const masterRef = "mock-master-ref"

type richText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Spans []any  `json:"spans"`
}

type contentGroup struct {
	Heading string     `json:"heading,omitempty"`
	Body    []richText `json:"body"`
}

type document struct {
	ID    string
	UID   string
	Type  string
	First time.Time
	Last  time.Time
	Data  map[string]any
}

func paragraph(text string) richText {
	return richText{Type: "paragraph", Text: text, Spans: []any{}}
}

func post(id, uid, title, subtitle, author string, first, last time.Time, content []contentGroup) document {
	return document{
		ID:    id,
		UID:   uid,
		Type:  "post",
		First: first,
		Last:  last,
		Data: map[string]any{
			"title":    title,
			"subtitle": subtitle,
			"author":   author,
			"banner":   map[string]any{"url": "https://images.prismic.io/spacetraveling/banner-" + uid + ".png"},
			"content":  content,
		},
	}
}

func fixtures() []document {
	day := func(d int) time.Time {
		return time.Date(2021, time.March, d, 19, 25, 28, 0, time.UTC)
	}
	lorem := "Lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor incididunt ut labore et dolore magna aliqua"

	return []document{
		post("YFKcDhEAACMAmqvA", "como-utilizar-hooks", "Como utilizar Hooks", "Pensando em sincronização em vez de ciclos de vida.", "Joseph Oliveira",
			day(15), day(25), []contentGroup{
				{Heading: "Proin et varius", Body: []richText{paragraph(lorem), paragraph(lorem)}},
				{Heading: "Cras laoreet mi", Body: []richText{paragraph(lorem)}},
			}),
		post("YFKcDhEAACMAmqvB", "criando-um-app-cra-do-zero", "Criando um app CRA do zero", "Tudo sobre como criar a sua primeira aplicação utilizando Create React App.", "Danilo Vieira",
			day(16), day(16), []contentGroup{
				{Heading: "Webpack e Babel", Body: []richText{paragraph(lorem)}},
			}),
		post("YFKcDhEAACMAmqvC", "typescript-na-pratica", "TypeScript na prática", "Tipos estáticos sem perder a produtividade.", "Ana Souza",
			day(18), day(18), []contentGroup{
				{Heading: "Interfaces", Body: []richText{paragraph(lorem)}},
				{Body: []richText{paragraph("Seção sem título.")}},
			}),
		post("YFKcDhEAACMAmqvD", "testes-com-jest", "Testes com Jest", "Confiança para refatorar.", "Carlos Lima",
			day(20), day(20), []contentGroup{
				{Heading: "Mocks", Body: []richText{paragraph(lorem)}},
			}),
		post("YFKcDhEAACMAmqvE", "deploy-na-vercel", "Deploy na Vercel", "Do git push à produção.", "Joseph Oliveira",
			day(22), day(22), nil),
	}
}
