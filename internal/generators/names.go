package generators

// Curated fictional-name components per nationality. Combinations are drawn
// independently so the pool rarely repeats a full name.

var firstNames = map[string][]string{
	"India": {
		"Arjun", "Rohan", "Vikram", "Aditya", "Karan", "Siddharth", "Rahul",
		"Aman", "Nikhil", "Pranav", "Ishan", "Dev", "Harsh", "Yash", "Kunal",
		"Varun", "Sameer", "Tejas", "Abhishek", "Manish", "Ravi", "Sachin",
		"Anand", "Dinesh", "Gaurav", "Mohit", "Naveen", "Parth", "Rajat",
		"Shreyas", "Tushar", "Uday", "Vinay", "Akash", "Bharat", "Chirag",
	},
	"Australia": {
		"Jack", "Liam", "Mitchell", "Cameron", "Brad", "Shane", "Ryan",
		"Matthew", "Travis", "Nathan", "Luke", "Aaron", "Ben", "Josh", "Marcus",
	},
	"England": {
		"James", "Oliver", "Harry", "George", "Tom", "Sam", "Jonny", "Ben",
		"Alex", "Chris", "Joe", "Will", "Adam", "Daniel", "Ollie",
	},
	"South Africa": {
		"Dale", "Faf", "Quinton", "Kagiso", "Aiden", "Dewald", "Heinrich",
		"Marco", "Rassie", "Tristan", "Wayne", "Lungi", "Anrich", "David", "Gerald",
	},
	"New Zealand": {
		"Kane", "Trent", "Tim", "Martin", "Devon", "Glenn", "Mitch", "Lockie",
		"Daryl", "Will", "Finn", "Kyle", "Blair", "Adam", "Matt",
	},
	"West Indies": {
		"Andre", "Nicholas", "Shimron", "Jason", "Kieron", "Alzarri", "Romario",
		"Rovman", "Shai", "Akeal", "Brandon", "Evin", "Johnson", "Obed", "Sherfane",
	},
	"Sri Lanka": {
		"Wanindu", "Kusal", "Pathum", "Dasun", "Charith", "Dushmantha",
		"Maheesh", "Dilshan", "Bhanuka", "Avishka", "Lahiru", "Chamika",
		"Kamindu", "Sadeera", "Nuwan",
	},
}

var lastNames = map[string][]string{
	"India": {
		"Sharma", "Patel", "Singh", "Kumar", "Reddy", "Iyer", "Nair", "Rao",
		"Menon", "Joshi", "Desai", "Chauhan", "Mishra", "Pandey", "Verma",
		"Agarwal", "Bhatt", "Choudhary", "Dubey", "Gill", "Jadeja", "Kaul",
		"Malhotra", "Negi", "Pillai", "Rathore", "Saxena", "Thakur", "Yadav",
		"Bose", "Chatterjee", "Das", "Ghosh", "Kulkarni", "Shinde", "Tendulkar",
	},
	"Australia": {
		"Smith", "Johnson", "Marsh", "Harris", "Turner", "Webster", "Connolly",
		"Richardson", "Abbott", "Green", "Hardie", "McDermott", "Neser", "Sangha", "Inglis",
	},
	"England": {
		"Robinson", "Wood", "Salt", "Brook", "Duckett", "Carse", "Atkinson",
		"Bethell", "Cox", "Dawson", "Hartley", "Jacks", "Livingstone", "Overton", "Potts",
	},
	"South Africa": {
		"van der Merwe", "du Plessis", "Botha", "Pretorius", "Jansen",
		"Coetzee", "Fortuin", "Hendricks", "Linde", "Mulder", "Nortje",
		"Rickelton", "Stubbs", "Verreynne", "Williams",
	},
	"New Zealand": {
		"Williamson", "Mitchell", "Chapman", "Ferguson", "Henry", "Jamieson",
		"Kuggeleijn", "Lister", "Milne", "Phillips", "Ravindra", "Sears",
		"Seifert", "Duffy", "Foulkes",
	},
	"West Indies": {
		"Charles", "Hope", "Joseph", "King", "Mayers", "Motie", "Powell",
		"Rutherford", "Shepherd", "Sinclair", "Thomas", "Walsh", "Chase",
		"Forde", "McKenzie",
	},
	"Sri Lanka": {
		"Fernando", "Perera", "Silva", "Mendis", "Rajapaksa", "Asalanka",
		"Chameera", "Hasaranga", "Karunaratne", "Madushanka", "Nissanka",
		"Samarawickrama", "Theekshana", "Wellalage", "Liyanage",
	},
}

func (g *PlayerGenerator) pickName(nationality string) string {
	firsts, ok := firstNames[nationality]
	if !ok {
		firsts = firstNames["England"]
	}
	lasts, ok := lastNames[nationality]
	if !ok {
		lasts = lastNames["England"]
	}
	return firsts[g.rng.Intn(len(firsts))] + " " + lasts[g.rng.Intn(len(lasts))]
}
