package questions

// seedQuestions are the built-in Part 1 and Part 3 prompts.
var seedQuestions = []Question{
	{Part: Part1, Text: "Do you like to watch movies?"},
	{Part: Part1, Text: "What kind of music do you listen to?"},
	{Part: Part1, Text: "Tell me about your hometown."},
	{Part: Part1, Text: "Do you work or are you a student?"},
	{Part: Part1, Text: "What do you do in your free time?"},
	{Part: Part1, Text: "Do you enjoy cooking? Why or why not?"},
	{Part: Part1, Text: "Are you a morning person or a night owl?"},
	{Part: Part1, Text: "What is your favorite color and why?"},

	{Part: Part3, Text: "How has technology changed the way people communicate with each other?"},
	{Part: Part3, Text: "What are the advantages and disadvantages of online shopping?"},
	{Part: Part3, Text: "In your opinion, should governments invest more in public transportation?"},
	{Part: Part3, Text: "What role does advertising play in society today?"},
	{Part: Part3, Text: "How important is it for people to travel to other countries?"},
	{Part: Part3, Text: "Do you think traditional skills are still important in the modern world?"},
	{Part: Part3, Text: "What can be done to reduce environmental pollution in big cities?"},
	{Part: Part3, Text: "Is it better for children to grow up in the city or in the countryside?"},
}
